package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alnah/poddy/internal/artifact"
)

const wsHandshakeTimeout = 10 * time.Second

var _ StreamSource = (*ElevenLabsWS)(nil)

// ElevenLabsWS streams synthesized speech over the stream-input WebSocket.
// Each Stream call opens its own connection and closes it when drained.
type ElevenLabsWS struct {
	cfg    elevenLabsConfig
	dialer *websocket.Dialer
}

// NewElevenLabsWS creates the WebSocket streaming source.
func NewElevenLabsWS(apiKey string, opts ...ElevenLabsOption) *ElevenLabsWS {
	return &ElevenLabsWS{
		cfg:    newElevenLabsConfig(apiKey, "speech.elevenlabs_ws", opts),
		dialer: &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout, Proxy: http.ProxyFromEnvironment},
	}
}

type wsTextMessage struct {
	Text                 string         `json:"text"`
	VoiceSettings        *VoiceSettings `json:"voice_settings,omitempty"`
	TryTriggerGeneration bool           `json:"try_trigger_generation,omitempty"`
}

type wsAudioMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Stream sends the whole text followed by end-of-stream and returns the
// decoded audio frames as a ChunkStream.
func (e *ElevenLabsWS) Stream(ctx context.Context, text string, voice Voice) (ChunkStream, error) {
	if voice.ID == "" {
		return nil, ErrNoVoice
	}

	q := url.Values{}
	q.Set("model_id", voice.model())
	q.Set("output_format", e.cfg.outputFormat)
	endpoint := fmt.Sprintf("%s/text-to-speech/%s/stream-input?%s", e.cfg.wsBaseURL, url.PathEscape(voice.ID), q.Encode())

	headers := http.Header{}
	headers.Set("xi-api-key", e.cfg.apiKey)

	conn, resp, err := e.dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			defer func() { _ = resp.Body.Close() }()
			return nil, fmt.Errorf("%w: %w", ErrTransport, parseElevenLabsError(resp))
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
		}
		return nil, fmt.Errorf("%w: websocket dial: %v", ErrTransport, err)
	}

	settings := e.cfg.settings
	for _, msg := range []wsTextMessage{
		{Text: " ", VoiceSettings: &settings},
		{Text: text + " ", TryTriggerGeneration: true},
		{Text: ""},
	} {
		if err := conn.WriteJSON(msg); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: websocket write: %v", ErrTransport, err)
		}
	}

	e.cfg.logger.Debug("stream opened", "voice", voice.ID, "model", voice.model(), "chars", len(text))

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	next := func() ([]byte, error) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return nil, io.EOF
				}
				return nil, fmt.Errorf("%w: websocket read: %v", ErrTransport, err)
			}

			var msg wsAudioMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				e.cfg.logger.Warn("unparseable websocket message", "error", err)
				continue
			}
			if msg.Error != "" {
				return nil, fmt.Errorf("%w: %s: %s", ErrTransport, msg.Error, msg.Message)
			}
			if msg.Audio != "" {
				chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
				if err != nil {
					return nil, fmt.Errorf("%w: decode audio frame: %v", ErrTransport, err)
				}
				return chunk, nil
			}
			if msg.IsFinal {
				return nil, io.EOF
			}
		}
	}
	closeFn := func() error {
		stop()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}
	return newOnceStream(next, closeFn), nil
}

// Format reports the container of the streamed audio.
func (e *ElevenLabsWS) Format() artifact.Format { return artifact.FormatMP3 }

// Health checks API connectivity and key validity over REST.
func (e *ElevenLabsWS) Health(ctx context.Context) error { return e.cfg.health(ctx) }
