package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hrportal/internal/domain/evaluation"
)

// Client is the HTTP implementation of evaluation.Collaborator. It speaks the
// portal's own /api/v1 surface, so a workflow instance embedded in another
// tool behaves exactly like the bundled frontend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

var _ evaluation.Collaborator = (*Client)(nil)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) ListCriteriaGroups(ctx context.Context) ([]evaluation.CriteriaGroup, error) {
	var out []evaluation.CriteriaGroup
	if err := c.do(ctx, "listCriteriaGroups", http.MethodGet, "/api/v1/evaluations/criteria/groups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCriteriaItems(ctx context.Context, role evaluation.Role) ([]evaluation.CriteriaItem, error) {
	var out []evaluation.CriteriaItem
	path := "/api/v1/evaluations/criteria/items?role=" + string(role)
	if err := c.do(ctx, "listCriteriaItems", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDraftResponses(ctx context.Context, evaluationID int64, actor evaluation.Role) ([]evaluation.Response, error) {
	var out []evaluation.Response
	path := fmt.Sprintf("/api/v1/evaluations/%d/draft?actor=%s", evaluationID, actor)
	if err := c.do(ctx, "getDraftResponses", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveDraft(ctx context.Context, evaluationID int64, actor evaluation.Role, responses []evaluation.Response) error {
	path := fmt.Sprintf("/api/v1/evaluations/%d/draft", evaluationID)
	payload := map[string]any{"actor": actor, "responses": responses}
	return c.do(ctx, "saveDraft", http.MethodPut, path, payload, nil)
}

func (c *Client) SubmitSelfAssessment(ctx context.Context, evaluationID, evaluatorID, approverID, missionID int64, responses []evaluation.Response) error {
	path := fmt.Sprintf("/api/v1/evaluations/%d/submit-self", evaluationID)
	payload := map[string]any{
		"evaluatorId": evaluatorID,
		"approverId":  approverID,
		"missionId":   missionID,
		"responses":   responses,
	}
	return c.do(ctx, "submitSelfAssessment", http.MethodPost, path, payload, nil)
}

func (c *Client) SubmitEvaluatorResponses(ctx context.Context, evaluationID int64, responses []evaluation.Response) error {
	path := fmt.Sprintf("/api/v1/evaluations/%d/submit-evaluator", evaluationID)
	payload := map[string]any{"responses": responses}
	return c.do(ctx, "submitEvaluatorResponses", http.MethodPost, path, payload, nil)
}

func (c *Client) RefuseAssessment(ctx context.Context, evaluationID int64, reason string) error {
	path := fmt.Sprintf("/api/v1/evaluations/%d/refuse", evaluationID)
	payload := map[string]any{"reason": reason}
	return c.do(ctx, "refuseAssessment", http.MethodPost, path, payload, nil)
}

func (c *Client) ValidateEvaluation(ctx context.Context, evaluationID int64, approved bool, reason string) error {
	path := fmt.Sprintf("/api/v1/evaluations/%d/decide", evaluationID)
	payload := map[string]any{"approved": approved, "reason": reason}
	return c.do(ctx, "validateEvaluation", http.MethodPost, path, payload, nil)
}

// do runs one request and decodes the envelope. Transport failures come back
// as TransportError so the workflow stays retryable; HTTP 409 becomes
// ConflictError so a stale instance surfaces as a conflict, not a retry.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &evaluation.TransportError{Op: op, Err: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &evaluation.TransportError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &evaluation.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &evaluation.TransportError{Op: op, Err: err}
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &evaluation.TransportError{Op: op, Err: fmt.Errorf("malformed response (status %d)", resp.StatusCode)}
		}
	}

	if resp.StatusCode == http.StatusConflict {
		message := ""
		if env.Error != nil {
			message = env.Error.Message
		}
		return &evaluation.ConflictError{Message: message}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if env.Error != nil && env.Error.Message != "" {
			message = env.Error.Message
		}
		return &evaluation.TransportError{Op: op, Err: fmt.Errorf("%s", message)}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &evaluation.TransportError{Op: op, Err: err}
		}
	}
	return nil
}
