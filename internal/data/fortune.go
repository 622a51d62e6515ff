package data

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
)

// fileFortuneRepo serves lines from a fortune file. Line 0 is a header and
// is never drawn.
type fileFortuneRepo struct {
	lines []string
	intn  func(n int) int
}

// NewFortuneRepo loads the fortune file at path
func NewFortuneRepo(path string) (repo.FortuneRepo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fortune file: %w", err)
	}
	return newFortuneRepo(raw, rand.IntN)
}

func newFortuneRepo(raw []byte, intn func(n int) int) (*fileFortuneRepo, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse fortune file: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("fortune file has no entries")
	}

	return &fileFortuneRepo{lines: lines, intn: intn}, nil
}

// Draw returns one entry chosen uniformly
func (r *fileFortuneRepo) Draw() (string, error) {
	return r.lines[r.intn(len(r.lines))], nil
}
