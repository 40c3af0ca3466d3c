// Package xmltv renders a transmission window as an XMLTV programme guide,
// the interchange format consumed by EPG aggregators.
package xmltv

import (
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/nandovz/airsched/scheduler"
)

// XMLTV wants zone-offset timestamps without separators.
const timeLayout = "20060102150405 -0700"

// Channel identifies the station in the guide.
type Channel struct {
	ID          string
	DisplayName string
	URL         string
}

// Write renders the transmissions as an XMLTV document. The seq is consumed
// exactly once; entries come out in stream order.
func Write(w io.Writer, channel Channel, seq scheduler.TransmissionSeq) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	tv := doc.CreateElement("tv")
	tv.CreateAttr("generator-info-name", "airsched")

	ch := tv.CreateElement("channel")
	ch.CreateAttr("id", channel.ID)
	ch.CreateElement("display-name").SetText(channel.DisplayName)
	if channel.URL != "" {
		ch.CreateElement("url").SetText(channel.URL)
	}

	for tx, ok := seq(); ok; tx, ok = seq() {
		prog := tv.CreateElement("programme")
		prog.CreateAttr("start", tx.Start.Format(timeLayout))
		prog.CreateAttr("stop", tx.End().Format(timeLayout))
		prog.CreateAttr("channel", channel.ID)
		prog.CreateElement("title").SetText(tx.ProgrammeName())
		if synopsis := tx.Schedule.Programme.Synopsis; synopsis != "" {
			prog.CreateElement("desc").SetText(synopsis)
		}
		if category := tx.Schedule.Programme.Category; category != "" {
			prog.CreateElement("category").SetText(category)
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XMLTV document: %w", err)
	}
	return nil
}
