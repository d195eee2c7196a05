package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// VariableWatermark stores the sync watermark in an Actions repository
// variable, the natural home when the job runs inside GitHub Actions.
type VariableWatermark struct {
	client *Client
	name   string
}

// NewVariableWatermark binds a client to one variable name.
func NewVariableWatermark(client *Client, name string) *VariableWatermark {
	return &VariableWatermark{client: client, name: name}
}

// Watermark reads the variable. A missing variable or an empty value
// means no watermark is set.
func (v *VariableWatermark) Watermark(ctx context.Context) (int64, bool, error) {
	value, ok, err := v.client.Variable(ctx, v.name)
	if err != nil {
		return 0, false, err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return 0, false, nil
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse watermark %q: %w", value, err)
	}
	return ts, true, nil
}

// SetWatermark writes the variable.
func (v *VariableWatermark) SetWatermark(ctx context.Context, ts int64) error {
	return v.client.SetVariable(ctx, v.name, strconv.FormatInt(ts, 10))
}
