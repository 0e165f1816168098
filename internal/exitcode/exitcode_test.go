package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minroll/minroll/internal/exitcode"
	"github.com/minroll/minroll/internal/test"
)

func TestGet(t *testing.T) {
	usage := exitcode.Set(errors.New("Missing an entry point"), exitcode.Usage)

	testCases := map[string]struct {
		err  error
		code int
	}{
		"nil":     {nil, exitcode.Success},
		"plain":   {errors.New("oops"), exitcode.BuildFailed},
		"build":   {exitcode.ErrBuildFailed, exitcode.BuildFailed},
		"usage":   {usage, exitcode.Usage},
		"wrapped": {fmt.Errorf("while parsing: %w", usage), exitcode.Usage},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			test.AssertEqual(t, exitcode.Get(tc.err), tc.code)
		})
	}
}

func TestSetKeepsMessageAndChain(t *testing.T) {
	err := errors.New("Invalid flag: \"--minify\"")
	coded := exitcode.Set(err, exitcode.Usage)
	test.AssertEqual(t, coded.Error(), err.Error())
	test.AssertEqual(t, errors.Is(coded, err), true)
	test.AssertEqual(t, exitcode.Set(nil, exitcode.Usage), nil)
}
