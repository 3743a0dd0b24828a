package classifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var testVocab = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]",
	"what", "is", "my", "balance", "?", "trans", "##fer", "money", "cafe", "!",
}

func newTestTokenizer(t *testing.T, maxSeqLen int) *WordPieceTokenizer {
	t.Helper()
	vocab := make(map[string]int64, len(testVocab))
	for i, token := range testVocab {
		vocab[token] = int64(i)
	}
	tok, err := NewWordPieceTokenizer(vocab, maxSeqLen, true)
	require.NoError(t, err)
	return tok
}

func TestWordPieceTokenizer_Tokenize(t *testing.T) {
	tok := newTestTokenizer(t, 16)

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Lower casing and punctuation split",
			input:    "What is my BALANCE?",
			expected: []string{"what", "is", "my", "balance", "?"},
		},
		{
			name:     "Sub word pieces",
			input:    "transfer money",
			expected: []string{"trans", "##fer", "money"},
		},
		{
			name:     "Accents are stripped when lower casing",
			input:    "Café!",
			expected: []string{"cafe", "!"},
		},
		{
			name:     "Unknown word collapses to a single unk",
			input:    "transxyz",
			expected: []string{"[UNK]"},
		},
		{
			name:     "Whitespace and control characters",
			input:    "  my\t\nbalance​ ",
			expected: []string{"my", "balance"},
		},
		{
			name:     "Empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tt.expected, tok.Tokenize(tt.input))
		})
	}
}

func TestWordPieceTokenizer_Encode(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)

	enc := tok.Encode("what is my balance")

	req.Equal([]int64{2, 4, 5, 6, 7, 3, 0, 0}, enc.InputIDs)
	req.Equal([]int64{1, 1, 1, 1, 1, 1, 0, 0}, enc.AttentionMask)
	req.Equal(make([]int64, 8), enc.TokenTypeIDs)
}

func TestWordPieceTokenizer_EncodeTruncates(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 5)

	enc := tok.Encode(strings.Repeat("money ", 50))

	req.Len(enc.InputIDs, 5)
	req.Equal([]int64{2, 11, 11, 11, 3}, enc.InputIDs)
	req.Equal([]int64{1, 1, 1, 1, 1}, enc.AttentionMask)
}

func TestWordPieceTokenizer_EncodeIsDeterministic(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 12)

	req.Equal(tok.Encode("What is my balance?"), tok.Encode("What is my balance?"))
}

func TestNewWordPieceTokenizer_MissingSpecialToken(t *testing.T) {
	req := require.New(t)

	_, err := NewWordPieceTokenizer(map[string]int64{"[PAD]": 0, "[UNK]": 1, "[CLS]": 2}, 8, true)

	req.Error(err)
	req.Contains(err.Error(), "[SEP]")
}

func TestLoadWordPieceTokenizer_FromFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "vocab.txt")
	req.NoError(os.WriteFile(path, []byte(strings.Join(testVocab, "\n")+"\n"), 0o644))

	tok, err := LoadWordPieceTokenizer(path, 8, true)
	req.NoError(err)

	req.Equal([]string{"balance"}, tok.Tokenize("Balance"))
	req.Equal(int64(7), tok.Encode("balance").InputIDs[1])
}
