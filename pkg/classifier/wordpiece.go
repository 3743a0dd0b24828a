package classifier

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	unkToken = "[UNK]"
	padToken = "[PAD]"
	clsToken = "[CLS]"
	sepToken = "[SEP]"

	maxCharsPerWord = 100
)

// Encoding is one padded, fixed-length model input.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// WordPieceTokenizer implements BERT style tokenization: basic cleanup and
// punctuation splitting followed by greedy longest-match WordPiece.
type WordPieceTokenizer struct {
	vocab      map[string]int64
	unkTokenID int64
	padTokenID int64
	clsTokenID int64
	sepTokenID int64
	maxSeqLen  int
	lowerCase  bool
}

func LoadWordPieceTokenizer(vocabPath string, maxSeqLen int, lowerCase bool) (*WordPieceTokenizer, error) {
	file, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocab file: %w", err)
	}
	defer file.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(file)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r")
		if token != "" {
			vocab[token] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan vocab file: %w", err)
	}

	return NewWordPieceTokenizer(vocab, maxSeqLen, lowerCase)
}

func NewWordPieceTokenizer(vocab map[string]int64, maxSeqLen int, lowerCase bool) (*WordPieceTokenizer, error) {
	if maxSeqLen < 2 {
		return nil, fmt.Errorf("max sequence length must be at least 2, got %d", maxSeqLen)
	}

	special := make(map[string]int64, 4)
	for _, token := range []string{unkToken, padToken, clsToken, sepToken} {
		id, ok := vocab[token]
		if !ok {
			return nil, fmt.Errorf("vocab missing %s token", token)
		}
		special[token] = id
	}

	return &WordPieceTokenizer{
		vocab:      vocab,
		unkTokenID: special[unkToken],
		padTokenID: special[padToken],
		clsTokenID: special[clsToken],
		sepTokenID: special[sepToken],
		maxSeqLen:  maxSeqLen,
		lowerCase:  lowerCase,
	}, nil
}

func (t *WordPieceTokenizer) MaxSeqLen() int {
	return t.maxSeqLen
}

// Encode tokenizes text into [CLS] tokens... [SEP] [PAD]..., truncated to the
// configured sequence length.
func (t *WordPieceTokenizer) Encode(text string) Encoding {
	tokens := t.Tokenize(text)

	if maxTokens := t.maxSeqLen - 2; len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	enc := Encoding{
		InputIDs:      make([]int64, t.maxSeqLen),
		AttentionMask: make([]int64, t.maxSeqLen),
		TokenTypeIDs:  make([]int64, t.maxSeqLen),
	}
	for i := range enc.InputIDs {
		enc.InputIDs[i] = t.padTokenID
	}

	enc.InputIDs[0] = t.clsTokenID
	enc.AttentionMask[0] = 1
	for i, token := range tokens {
		enc.InputIDs[i+1] = t.tokenID(token)
		enc.AttentionMask[i+1] = 1
	}
	enc.InputIDs[len(tokens)+1] = t.sepTokenID
	enc.AttentionMask[len(tokens)+1] = 1

	return enc
}

// Tokenize returns the WordPiece tokens of text without special tokens.
func (t *WordPieceTokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, word := range t.basicTokenize(text) {
		tokens = append(tokens, t.wordpiece(word)...)
	}
	return tokens
}

func (t *WordPieceTokenizer) tokenID(token string) int64 {
	if id, ok := t.vocab[token]; ok {
		return id
	}
	return t.unkTokenID
}

func (t *WordPieceTokenizer) basicTokenize(text string) []string {
	text = cleanText(text)
	if t.lowerCase {
		text = stripAccents(strings.ToLower(text))
	}

	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isPunctuation(r) || isCJK(r):
			flush()
			words = append(words, string(r))
		default:
			current = append(current, r)
		}
	}
	flush()

	return words
}

// wordpiece splits a single word greedily. A word with an unmatchable piece
// becomes [UNK] as a whole.
func (t *WordPieceTokenizer) wordpiece(word string) []string {
	chars := []rune(word)
	if len(chars) > maxCharsPerWord {
		return []string{unkToken}
	}

	var pieces []string
	start := 0
	for start < len(chars) {
		end := len(chars)
		found := ""
		for end > start {
			candidate := string(chars[start:end])
			if start > 0 {
				candidate = "##" + candidate
			}
			if _, ok := t.vocab[candidate]; ok {
				found = candidate
				break
			}
			end--
		}
		if found == "" {
			return []string{unkToken}
		}
		pieces = append(pieces, found)
		start = end
	}

	return pieces
}

func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == unicode.ReplacementChar {
			continue
		}
		if r == '\t' || r == '\n' || r == '\r' || unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		if unicode.IsControl(r) || unicode.In(r, unicode.Cf) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	result, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return result
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
