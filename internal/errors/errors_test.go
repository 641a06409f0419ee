package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsAppErrorCode(t *testing.T) {
	base := LoadError("missing column edad")
	wrapped := Wrap(base, "failed to load dataset")

	assert.Equal(t, CodeLoadError, GetCode(wrapped))
	assert.Equal(t, "failed to load dataset: missing column edad", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	wrapped := Wrapf(stderrors.New("boom"), "step %d", 2)

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Equal(t, "step 2: boom", wrapped.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %s", "too"))
	assert.Nil(t, WithCode(CodeInvalidInput, nil))
}

func TestHasCode(t *testing.T) {
	err := Wrap(Wrap(InvalidInput("edad_min out of range"), "parse controls"), "evaluate")

	assert.True(t, HasCode(err, CodeInvalidInput))
	assert.False(t, HasCode(err, CodeLoadError))
	assert.False(t, HasCode(stderrors.New("plain"), CodeInvalidInput))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestDatasetEmptyMessage(t *testing.T) {
	err := DatasetEmpty("resumen_beneficio_afp.csv")
	assert.Equal(t, CodeDatasetEmpty, err.Code)
	assert.Contains(t, err.Error(), "resumen_beneficio_afp.csv")
}

func TestDatabaseErrorKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := DatabaseError(cause, "failed to insert row %d", 3)

	assert.Equal(t, CodeDatabaseError, err.Code)
	assert.Equal(t, "failed to insert row 3: connection refused", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(Wrap(err, "import failed"), CodeDatabaseError))
}
