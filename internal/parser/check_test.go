package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/triage/internal/types"
)

func TestCheckIssueBody(t *testing.T) {
	issue, res, err := CheckIssueBody(context.Background(), fullBody)
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.True(t, res.Valid)

	issue, res, err = CheckIssueBody(context.Background(), invertedRangeBody)
	require.NoError(t, err, "validation findings are not parse errors")
	require.NotNil(t, issue)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)

	_, _, err = CheckIssueBody(context.Background(), "")
	requireCode(t, err, types.ErrInvalidFormat)
}

func TestClassify(t *testing.T) {
	c, err := Classify(context.Background(), fullBody, testOptions())
	require.NoError(t, err)
	res := parseBody(t, fullBody, testOptions())
	assert.Equal(t, res.Issue.Source, c.Source)
	assert.Equal(t, res.Issue.Type, c.Type)
	assert.Equal(t, res.Issue.Context.Priority, c.Priority)

	_, err = Classify(context.Background(), "a\x00b", nil)
	requireCode(t, err, types.ErrInvalidFormat)
}
