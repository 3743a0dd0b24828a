package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

const (
	modelFileName           = "model.onnx"
	vocabFileName           = "vocab.txt"
	modelConfigFileName     = "config.json"
	tokenizerConfigFileName = "tokenizer_config.json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ModelMeta holds what the service needs from a transformers export directory.
type ModelMeta struct {
	NumLabels             int
	ID2Label              map[int]string
	MaxPositionEmbeddings int
	LowerCase             bool
}

type modelConfigFile struct {
	NumLabels             int               `json:"num_labels"`
	ID2Label              map[string]string `json:"id2label"`
	MaxPositionEmbeddings int               `json:"max_position_embeddings"`
}

type tokenizerConfigFile struct {
	DoLowerCase *bool `json:"do_lower_case"`
}

// LoadModelMeta reads config.json and tokenizer_config.json from dir. Both files
// are optional; missing values stay zero and lower casing defaults to true.
func LoadModelMeta(dir string) (ModelMeta, error) {
	meta := ModelMeta{LowerCase: true}

	var cfg modelConfigFile
	found, err := readJSONFile(filepath.Join(dir, modelConfigFileName), &cfg)
	if err != nil {
		return meta, err
	}
	if found {
		meta.NumLabels = cfg.NumLabels
		meta.MaxPositionEmbeddings = cfg.MaxPositionEmbeddings
		if len(cfg.ID2Label) > 0 {
			meta.ID2Label = make(map[int]string, len(cfg.ID2Label))
			for rawID, label := range cfg.ID2Label {
				id, err := strconv.Atoi(rawID)
				if err != nil {
					return meta, fmt.Errorf("invalid id2label key %q in %s: %w", rawID, modelConfigFileName, err)
				}
				meta.ID2Label[id] = label
			}
			if meta.NumLabels == 0 {
				meta.NumLabels = len(meta.ID2Label)
			}
		}
	}

	var tokCfg tokenizerConfigFile
	found, err = readJSONFile(filepath.Join(dir, tokenizerConfigFileName), &tokCfg)
	if err != nil {
		return meta, err
	}
	if found && tokCfg.DoLowerCase != nil {
		meta.LowerCase = *tokCfg.DoLowerCase
	}

	return meta, nil
}

func readJSONFile(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
