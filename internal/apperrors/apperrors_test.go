package apperrors

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type remoteErr struct{ msg string }

func (e remoteErr) Error() string         { return "googleapi: Error 404: " + e.msg }
func (e remoteErr) RemoteMessage() string { return e.msg }

func TestMissingParameter_Envelope(t *testing.T) {
	err := MissingParameter("get", "tag", "tagId")

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryBadInput, rich.Category)
	assert.Equal(t, CodeMissingParameter, rich.TextCode)
	assert.Equal(t, http.StatusBadRequest, rich.Code)
	assert.Equal(t, "Error performing get on tag: tagId is required for get action", Message(err))
}

func TestRemote_PrefersEnvelopeMessage(t *testing.T) {
	err := Remote("delete", "folder", remoteErr{msg: "Not found."})

	assert.True(t, HasCode(err, CodeRemote))
	assert.Equal(t, "Error performing delete on folder: Not found.", Message(err))
}

func TestRemote_FallsBackToErrorString(t *testing.T) {
	err := Remote("list", "container", errors.New("connection reset"))
	assert.Equal(t, "Error performing list on container: connection reset", Message(err))
}

func TestRefreshFailure_IncludesReauthInstruction(t *testing.T) {
	cause := Authorization("get", "tag", remoteErr{msg: "Request had invalid authentication credentials."})
	err := RefreshFailure(cause)

	assert.Equal(t, CodeRefreshFailure, Code(err))
	assert.Equal(t,
		"Authorization failed. Run 'gtm-mcp auth' to re-authorize. (Error performing get on tag: Request had invalid authentication credentials.)",
		Message(err))

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryAuth, rich.Category)
	assert.Equal(t, http.StatusUnauthorized, rich.Code)
	assert.True(t, errors.Is(err, cause))
}

func TestRefreshFailure_OverRemoteErrorIsAuthCategory(t *testing.T) {
	cause := Remote("list", "container", errors.New("connection reset"))
	err := RefreshFailure(cause)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryAuth, rich.Category)
	assert.Equal(t, CodeRefreshFailure, rich.TextCode)
	assert.Equal(t,
		"Authorization failed. Run 'gtm-mcp auth' to re-authorize. (Error performing list on container: connection reset)",
		Message(err))
}

func TestRemote_KeepsCause(t *testing.T) {
	cause := remoteErr{msg: "Not found."}
	err := Remote("get", "workspace", cause)

	var got remoteErr
	require.True(t, errors.As(err, &got))
	assert.Equal(t, cause, got)
	assert.Equal(t, goerrors.CategoryExternal, err.(*goerrors.Error).Category)
}

func TestHasCode_ForeignError(t *testing.T) {
	assert.False(t, HasCode(errors.New("boom"), CodeRemote))
	assert.Equal(t, "", Code(errors.New("boom")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestMissingAction(t *testing.T) {
	err := MissingAction("tag")
	assert.True(t, HasCode(err, CodeMissingParameter))
	assert.Equal(t, "Error performing request on tag: action is required", Message(err))
}

func TestInvalidArguments(t *testing.T) {
	err := InvalidArguments("", "folder", errors.New("unexpected end of JSON input"))
	assert.True(t, HasCode(err, CodeValidation))
	assert.Equal(t, "Error performing request on folder: invalid arguments: unexpected end of JSON input", Message(err))
}
