package openai

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/careerforge/careerforge/internal/types"
)

// chunkPayload is one SSE chunk of a streaming chat completion.
type chunkPayload struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *usagePayload `json:"usage"`
}

// streamProcessor parses SSE chunks and extracts content and usage.
// Usage appears only on the terminal chunk, and only when the request
// asked for it via stream_options.include_usage.
type streamProcessor struct {
	contentBuffer strings.Builder
	model         string
	reported      *usagePayload
}

func newStreamProcessor() *streamProcessor {
	return &streamProcessor{}
}

// processReader reads the SSE stream, forwarding content deltas to onChunk.
func (p *streamProcessor) processReader(r io.Reader, onChunk types.ChunkFunc) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 256*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		data := bytes.TrimPrefix(line, []byte("data: "))

		if bytes.Equal(data, []byte("[DONE]")) {
			continue
		}

		var chunk chunkPayload
		if err := json.Unmarshal(data, &chunk); err != nil {
			continue // Skip malformed chunks
		}

		if p.model == "" && chunk.Model != "" {
			p.model = chunk.Model
		}
		if chunk.Usage != nil {
			p.reported = chunk.Usage
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			p.contentBuffer.WriteString(choice.Delta.Content)
			if onChunk != nil {
				if err := onChunk(choice.Delta.Content); err != nil {
					return err
				}
			}
		}
	}
	return scanner.Err()
}
