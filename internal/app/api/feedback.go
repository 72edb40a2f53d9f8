package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"arzweb/internal/app/market"
)

// Feedback returns the reviews received by nickname.
func (c *Client) Feedback(ctx context.Context, creds Credentials, nickname string) ([]market.Feedback, error) {
	var raw json.RawMessage
	op := "list feedback"
	if err := c.doJSON(ctx, creds, request{op: op, method: http.MethodGet, path: "/api/feedback/" + url.PathEscape(nickname)}, &raw); err != nil {
		return nil, err
	}
	o, ok := decodeObject(raw)
	if !ok {
		return nil, &RequestError{Op: op, StatusCode: http.StatusOK, Err: errMalformed}
	}

	items := o.list("feedbacks")
	out := make([]market.Feedback, 0, len(items))
	for _, item := range items {
		out = append(out, toFeedback(item))
	}
	return out, nil
}

// SubmitFeedback sends a review for moderation.
func (c *Client) SubmitFeedback(ctx context.Context, creds Credentials, in market.ReviewInput, proof File) error {
	req, err := multipartRequest("submit feedback", http.MethodPost, "/api/feedback", []formField{
		{name: "ad_id", value: strconv.FormatInt(in.AdID, 10)},
		{name: "rating", value: strconv.Itoa(in.Rating)},
		{name: "review_text", value: in.Text},
	}, map[string]File{"proof_image": proof})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}
