package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
)

// printer renders pipeline events and command results.
//
// Text mode prints progress lines ("[30%] Injecting website content...") to
// stdout and transcript lines to stderr. JSON mode prints one object per
// line to stdout, each tagged with a "type" field:
//
//	{"type":"progress","percent":30,"label":"Injecting website content..."}
//	{"type":"log","text":"Running command: npm install"}
//	{"type":"result","data":{...}}
type printer struct {
	out  io.Writer
	errw io.Writer
	json bool
}

func newPrinter(cmd *cobra.Command) *printer {
	return &printer{out: cmd.OutOrStdout(), errw: cmd.ErrOrStderr(), json: IsJSONOutput()}
}

type progressJSON struct {
	Type    string `json:"type"`
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

type logJSON struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type resultJSON struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// events returns the sink passed to the pipeline.
func (p *printer) events() model.Events {
	return model.Events{Progress: p.progress, Log: p.log}
}

func (p *printer) progress(e model.ProgressEvent) {
	if p.json {
		p.emit(progressJSON{Type: "progress", Percent: e.Percent, Label: e.Label})
		return
	}
	fmt.Fprintln(p.out, e.String())
}

func (p *printer) log(l model.LogLine) {
	if p.json {
		p.emit(logJSON{Type: "log", Text: l.Text})
		return
	}
	fmt.Fprintln(p.errw, l.Text)
}

// result prints the final object of a command. In text mode, text is
// called to render it instead.
func (p *printer) result(data interface{}, text func(w io.Writer)) {
	if p.json {
		p.emit(resultJSON{Type: "result", Data: data})
		return
	}
	text(p.out)
}

func (p *printer) emit(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(p.errw, "failed to encode output: %v\n", err)
		return
	}
	fmt.Fprintln(p.out, string(data))
}
