package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RemoteProcedureClient wraps the hosted callable for Agora token
// generation, the signaling half of the in-app voice call. It is a plain
// JSON POST against the functions gateway.
type RemoteProcedureClient struct {
	http *HttpClient
}

func NewRemoteProcedureClient(baseURL string, timeout time.Duration) *RemoteProcedureClient {
	return &RemoteProcedureClient{
		http: NewHttpClient(baseURL, timeout),
	}
}

type agoraTokenRequest struct {
	ChannelName string `json:"channel_name"`
	UID         string `json:"uid"`
	Role        string `json:"role"`
}

type agoraTokenResponse struct {
	Token string `json:"token"`
}

// GenerateAgoraToken fetches a short-lived RTC token for the in-app call
// between provider and customer.
func (c *RemoteProcedureClient) GenerateAgoraToken(ctx context.Context, channelName, uid, role string) (string, error) {
	resp, err := c.http.POST(ctx, "/generateAgoraToken", agoraTokenRequest{
		ChannelName: channelName,
		UID:         uid,
		Role:        role,
	})
	if err != nil {
		return "", fmt.Errorf("generateAgoraToken call failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generateAgoraToken returned status %d", resp.StatusCode)
	}

	var body agoraTokenResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return "", fmt.Errorf("generateAgoraToken: invalid response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("generateAgoraToken: empty token in response")
	}
	return body.Token, nil
}
