package anthropic

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/careerforge/careerforge/internal/types"
)

// streamEvent covers the subset of Anthropic SSE event payloads the
// processor cares about. Fields are optional per event type; everything
// else is ignored.
type streamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Model string        `json:"model"`
		Usage *usagePayload `json:"usage"`
	} `json:"message"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage *usagePayload `json:"usage"`
}

// streamProcessor accumulates content and usage from an SSE stream.
// Input tokens arrive on message_start, output tokens on message_delta;
// either may never arrive, in which case usage falls back to estimation.
type streamProcessor struct {
	contentBuffer strings.Builder
	model         string
	inputTokens   int
	outputTokens  int
	sawUsage      bool
}

func newStreamProcessor() *streamProcessor {
	return &streamProcessor{}
}

// processReader reads the SSE stream, forwarding text deltas to onChunk.
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

		var event streamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue // Skip malformed events
		}

		if err := p.processEvent(&event, onChunk); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (p *streamProcessor) processEvent(event *streamEvent, onChunk types.ChunkFunc) error {
	switch event.Type {
	case "message_start":
		if event.Message != nil {
			p.model = event.Message.Model
			if event.Message.Usage != nil {
				p.inputTokens = event.Message.Usage.InputTokens
				p.sawUsage = true
			}
		}

	case "content_block_delta":
		if event.Delta != nil && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
			p.contentBuffer.WriteString(event.Delta.Text)
			if onChunk != nil {
				return onChunk(event.Delta.Text)
			}
		}

	case "message_delta":
		if event.Usage != nil {
			p.outputTokens = event.Usage.OutputTokens
			p.sawUsage = true
		}
	}
	return nil
}

// usage returns the reported usage, or estimate() when the vendor never
// sent terminal usage events.
func (p *streamProcessor) usage(estimate func() types.TokenUsage) types.TokenUsage {
	if !p.sawUsage {
		return estimate()
	}
	usage, err := types.NewTokenUsage(p.inputTokens, p.outputTokens)
	if err != nil {
		return estimate()
	}
	return usage
}
