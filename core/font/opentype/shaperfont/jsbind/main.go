//go:build js && wasm

/*
Command jsbind exposes shaper font compilation to JavaScript hosts. Compile with

	GOOS=js GOARCH=wasm go build -o shaperfont.wasm ./core/font/opentype/shaperfont/jsbind

After instantiating the module, function buildShaperFont is available on the
global object:

	const result = buildShaperFont(1000, ["A", "V"], "feature kern { pos A V -50; } kern;",
	    [{tag: "wght", min: 100, default: 400, max: 900}])
	// result.fontData: Uint8Array or null
	// result.insertMarkers: [{tag, lookupId}]
	// result.messages: [{level, text, span: {start, end}}]

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"fmt"
	"syscall/js"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/shaperfont"
)

func main() {
	js.Global().Set("buildShaperFont", js.FuncOf(buildShaperFont))
	select {} // keep the Go runtime alive for callbacks
}

// buildShaperFont(unitsPerEm, glyphOrder, featureSource, axes)
func buildShaperFont(this js.Value, args []js.Value) (result interface{}) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(fmt.Sprintf("invalid arguments: %v", r))
		}
	}()
	if len(args) < 3 {
		return failure("buildShaperFont expects (unitsPerEm, glyphOrder, featureSource[, axes])")
	}
	upem, err := shaperfont.UnitsPerEm(args[0].Float())
	if err != nil {
		return failure(core.UserMessage(err))
	}
	glyphs := make([]string, args[1].Length())
	for i := range glyphs {
		glyphs[i] = args[1].Index(i).String()
	}
	source := args[2].String()
	var axes []shaperfont.AxisInfo
	if len(args) > 3 && !args[3].IsNull() && !args[3].IsUndefined() {
		for i := 0; i < args[3].Length(); i++ {
			a := args[3].Index(i)
			axes = append(axes, shaperfont.AxisInfo{
				Tag:     a.Get("tag").String(),
				Min:     a.Get("min").Float(),
				Default: a.Get("default").Float(),
				Max:     a.Get("max").Float(),
			})
		}
	}
	return toJS(shaperfont.BuildShaperFont(upem, glyphs, source, axes))
}

func toJS(r *shaperfont.CompilationResult) js.Value {
	obj := js.Global().Get("Object").New()
	if r.Succeeded() {
		data := js.Global().Get("Uint8Array").New(len(r.FontData))
		js.CopyBytesToJS(data, r.FontData)
		obj.Set("fontData", data)
	} else {
		obj.Set("fontData", js.Null())
	}
	markers := make([]interface{}, len(r.InsertMarkers))
	for i, m := range r.InsertMarkers {
		markers[i] = map[string]interface{}{"tag": m.Tag, "lookupId": m.LookupID}
	}
	obj.Set("insertMarkers", markers)
	msgs := make([]interface{}, len(r.Messages))
	for i, m := range r.Messages {
		msgs[i] = map[string]interface{}{
			"level": m.Level,
			"text":  m.Text,
			"span":  map[string]interface{}{"start": m.Span.Start, "end": m.Span.End},
		}
	}
	obj.Set("messages", msgs)
	obj.Set("report", r.Report)
	return obj
}

func failure(text string) js.Value {
	obj := js.Global().Get("Object").New()
	obj.Set("fontData", js.Null())
	obj.Set("insertMarkers", []interface{}{})
	obj.Set("messages", []interface{}{
		map[string]interface{}{
			"level": "error",
			"text":  text,
			"span":  map[string]interface{}{"start": 0, "end": 0},
		},
	})
	obj.Set("report", "error: "+text+"\n")
	return obj
}
