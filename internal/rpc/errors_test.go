package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodesToError(t *testing.T) {
	errGone := errors.New("gone")
	errBusy := errors.New("busy")
	codes := ErrorCodes{
		{Err: errGone, Code: CodeNotFound},
		{Err: errBusy, Code: CodeConflict},
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "rpc error passes through", err: InvalidParams("bad"), want: CodeInvalidParams},
		{name: "wrapped sentinel", err: fmt.Errorf("lookup: %w", errBusy), want: CodeConflict},
		{name: "unmapped error", err: errors.New("boom"), want: CodeApplication},
		{name: "first listed sentinel wins", err: errors.Join(errBusy, errGone), want: CodeNotFound},
		{name: "order of wrapping does not matter", err: errors.Join(errGone, errBusy), want: CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// repeated to catch any iteration-order dependence
			for i := 0; i < 20; i++ {
				got := codes.toError(tt.err)
				assert.Equal(t, tt.want, got.Code)
			}
		})
	}

	assert.Equal(t, CodeApplication, ErrorCodes(nil).toError(errGone).Code)
}
