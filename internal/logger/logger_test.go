package logger_test

import (
	"testing"

	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/test"
)

func TestLocationOrNil(t *testing.T) {
	source := test.SourceForTest("let a = 1\nlet b = oops\n")
	loc := logger.LocationOrNil(&source, logger.Range{Loc: logger.Loc{Start: 18}, Len: 4})

	test.AssertEqual(t, loc.File, "<stdin>")
	test.AssertEqual(t, loc.Line, 2)
	test.AssertEqual(t, loc.Column, 8)
	test.AssertEqual(t, loc.Length, 4)
	test.AssertEqual(t, loc.LineText, "let b = oops")
}

func TestMsgStringWithoutColor(t *testing.T) {
	source := test.SourceForTest("import {x} from './lib'")
	msg := logger.Msg{
		Kind:     logger.Error,
		Text:     "Something went wrong",
		Location: logger.LocationOrNil(&source, logger.Range{Loc: logger.Loc{Start: 8}, Len: 1}),
	}

	text := msg.String(logger.OutputOptions{IncludeSource: true}, logger.TerminalInfo{})
	test.AssertEqualWithDiff(t, text, `<stdin>:1:8: error: Something went wrong
import {x} from './lib'
        ^
`)

	text = msg.String(logger.OutputOptions{}, logger.TerminalInfo{})
	test.AssertEqual(t, text, "<stdin>: error: Something went wrong\n")
}

func TestDeferLogSortsMessages(t *testing.T) {
	log := logger.NewDeferLog()
	test.AssertEqual(t, log.HasErrors(), false)

	log.AddMsg(logger.Msg{Kind: logger.Warning, Text: "b"})
	test.AssertEqual(t, log.HasErrors(), false)
	log.AddMsg(logger.Msg{Kind: logger.Error, Text: "a"})
	test.AssertEqual(t, log.HasErrors(), true)

	msgs := log.Done()
	test.AssertEqual(t, len(msgs), 2)
	test.AssertEqual(t, msgs[0].Text, "a")
	test.AssertEqual(t, msgs[1].Text, "b")
}

func TestRangeOfString(t *testing.T) {
	source := test.SourceForTest(`import x from "a\"b";`)
	r := source.RangeOfString(logger.Loc{Start: 14})
	test.AssertEqual(t, source.TextForRange(r), `"a\"b"`)
}
