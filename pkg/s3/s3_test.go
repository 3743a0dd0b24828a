package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string]string
	listErr error
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	if f.listErr != nil {
		return f.listErr
	}
	page := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if !strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			continue
		}
		page.Contents = append(page.Contents, &s3.Object{Key: aws.String(key)})
	}
	fn(page, true)
	return nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	size := int64(len(body))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: aws.Int64(size),
		ContentRange:  aws.String(fmt.Sprintf("bytes 0-%d/%d", size-1, size)),
	}, nil
}

func TestDownloadPrefix(t *testing.T) {
	req := require.New(t)
	dest := t.TempDir()
	client := NewWithClient(&fakeS3{objects: map[string]string{
		"assets/label_mapping.csv":        "label,label_name\n3,balance_inquiry\n",
		"assets/responses.csv":            "label_name,response\nbalance_inquiry,ok\n",
		"assets/intent_model/vocab.txt":   "[PAD]\n[UNK]\n",
		"assets/intent_model/config.json": "{}",
		"assets/intent_model/":            "",
	}}, "models")

	written, err := client.DownloadPrefix(context.Background(), "assets/", dest)

	req.NoError(err)
	req.Equal(4, written)

	content, err := os.ReadFile(filepath.Join(dest, "intent_model", "vocab.txt"))
	req.NoError(err)
	req.Equal("[PAD]\n[UNK]\n", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "label_mapping.csv"))
	req.NoError(err)
	req.Equal("label,label_name\n3,balance_inquiry\n", string(content))
}

func TestDownloadPrefix_PrefixIsAFolder(t *testing.T) {
	req := require.New(t)
	dest := t.TempDir()
	client := NewWithClient(&fakeS3{objects: map[string]string{
		"intent/responses.csv":    "label_name,response\ngreeting,Hi!\n",
		"intent-v2/responses.csv": "label_name,response\ngreeting,Hello v2\n",
	}}, "models")

	written, err := client.DownloadPrefix(context.Background(), "intent", dest)

	req.NoError(err)
	req.Equal(1, written)

	content, err := os.ReadFile(filepath.Join(dest, "responses.csv"))
	req.NoError(err)
	req.Equal("label_name,response\ngreeting,Hi!\n", string(content))
	req.NoDirExists(filepath.Join(dest, "-v2"))
}

func TestDirPrefix(t *testing.T) {
	req := require.New(t)

	req.Equal("", dirPrefix(""))
	req.Equal("intent/", dirPrefix("intent"))
	req.Equal("intent/", dirPrefix("intent/"))
}

func TestDownloadPrefix_ListError(t *testing.T) {
	req := require.New(t)
	client := NewWithClient(&fakeS3{listErr: errors.New("AccessDenied")}, "models")

	written, err := client.DownloadPrefix(context.Background(), "assets/", t.TempDir())

	req.Zero(written)
	req.ErrorContains(err, "AccessDenied")
}

func TestKeyToPath(t *testing.T) {
	dest := filepath.Join("data")

	tests := []struct {
		name     string
		prefix   string
		key      string
		expected string
		unsafe   bool
	}{
		{name: "Nested key", prefix: "assets/", key: "assets/intent_model/model.onnx", expected: filepath.Join("data", "intent_model", "model.onnx")},
		{name: "Prefix without slash", prefix: "assets", key: "assets/responses.csv", expected: filepath.Join("data", "responses.csv")},
		{name: "Key equal to prefix", prefix: "assets/responses.csv", key: "assets/responses.csv", expected: filepath.Join("data", "responses.csv")},
		{name: "Dots inside a name are fine", prefix: "", key: "v1..2/model.onnx", expected: filepath.Join("data", "v1..2", "model.onnx")},
		{name: "Parent traversal", prefix: "assets/", key: "assets/../../etc/passwd", unsafe: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := keyToPath(tt.prefix, tt.key, dest)
			if tt.unsafe {
				req.ErrorIs(err, ErrUnsafeKey)
				return
			}
			req.NoError(err)
			req.Equal(tt.expected, got)
		})
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	req := require.New(t)

	_, err := New(Config{Region: "ap-southeast-1"})

	req.Error(err)
}
