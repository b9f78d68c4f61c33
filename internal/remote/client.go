package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"
	"github.com/pelletier/go-toml/v2"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
)

// Client is an executor that dispatches trajectories to a remote prediction
// worker. One connection is dialed per attempt: trajectories run for minutes
// to hours, so connection reuse buys nothing and reconnect logic stays out
// of the picture.
type Client struct {
	url   string
	run   *settings.RunSettings
	debug bool
}

// NewClient creates a Client for the given worker URL.
func NewClient(url string, run *settings.RunSettings, debug bool) *Client {
	return &Client{url: url, run: run, debug: debug}
}

// Execute sends one trajectory to the worker and blocks until it reports a
// verdict. Connection and protocol errors are unrecoverable faults; a
// worker-reported error is a failed trajectory.
func (c *Client) Execute(ctx context.Context, attempt domain.Attempt, protocol *config.Protocol) (domain.Verdict, error) {
	protocolTOML, err := toml.Marshal(protocol)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("encoding protocol: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("dialing predictor %s: %w", c.url, err)
	}
	defer conn.Close()

	// Unblock the read loop when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	msg, err := MarshalEnvelope(TypePredict, PredictMessage{
		Name:         attempt.Name,
		Length:       attempt.Length,
		Seed:         attempt.Seed,
		Helicity:     attempt.Helicity,
		StartingPDB:  c.run.StartingPDB,
		Chains:       c.run.Chains,
		Hotspots:     c.run.TargetHotspotResidues,
		ProtocolTOML: string(protocolTOML),
	})
	if err != nil {
		return domain.Verdict{}, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return domain.Verdict{}, fmt.Errorf("sending predict request: %w", err)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return domain.Verdict{}, ctx.Err()
			}
			return domain.Verdict{}, fmt.Errorf("reading from predictor: %w", err)
		}

		var env EnvelopeRaw
		if err := json.Unmarshal(message, &env); err != nil {
			return domain.Verdict{}, fmt.Errorf("invalid predictor message: %w", err)
		}

		switch env.Type {
		case TypeLog:
			if c.debug {
				var logMsg LogMessage
				if err := json.Unmarshal(env.Payload, &logMsg); err == nil {
					log.Printf("[remote] %s: %s", logMsg.Name, logMsg.Line)
				}
			}

		case TypeVerdict:
			var verdictMsg VerdictMessage
			if err := json.Unmarshal(env.Payload, &verdictMsg); err != nil {
				return domain.Verdict{}, fmt.Errorf("invalid verdict message: %w", err)
			}
			return verdictMsg.Verdict, nil

		case TypeError:
			var errMsg ErrorMessage
			if err := json.Unmarshal(env.Payload, &errMsg); err != nil {
				return domain.Verdict{}, fmt.Errorf("invalid error message: %w", err)
			}
			return domain.Verdict{FailureReason: errMsg.Message}, nil

		default:
			// Unknown message types are skipped so the protocol can grow.
		}
	}
}
