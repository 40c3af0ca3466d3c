package xmltv

import (
	"bytes"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandovz/airsched/scheduler"
	"github.com/nandovz/airsched/scheduler/storage"
)

func seqOf(transmissions ...scheduler.Transmission) scheduler.TransmissionSeq {
	i := 0
	return func() (scheduler.Transmission, bool) {
		if i >= len(transmissions) {
			return scheduler.Transmission{}, false
		}
		tx := transmissions[i]
		i++
		return tx, true
	}
}

func TestWrite(t *testing.T) {
	sch := &scheduler.Schedule{
		Schedule: storage.Schedule{ID: "sch-1", Type: storage.EmissionLive},
		Programme: &storage.Programme{
			Name:     "Morning News",
			Synopsis: "Daily news roundup.",
			Category: "news",
			Runtime:  time.Hour,
		},
	}
	channel := Channel{ID: "station.example", DisplayName: "Example FM", URL: "https://example.fm"}

	var buf bytes.Buffer
	err := Write(&buf, channel, seqOf(
		scheduler.Transmission{Schedule: sch, Start: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)},
		scheduler.Transmission{Schedule: sch, Start: time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC)},
	))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	tv := doc.SelectElement("tv")
	require.NotNil(t, tv)

	ch := tv.SelectElement("channel")
	require.NotNil(t, ch)
	assert.Equal(t, "station.example", ch.SelectAttrValue("id", ""))
	assert.Equal(t, "Example FM", ch.SelectElement("display-name").Text())
	assert.Equal(t, "https://example.fm", ch.SelectElement("url").Text())

	programmes := tv.SelectElements("programme")
	require.Len(t, programmes, 2)

	first := programmes[0]
	assert.Equal(t, "20140106140000 +0000", first.SelectAttrValue("start", ""))
	assert.Equal(t, "20140106150000 +0000", first.SelectAttrValue("stop", ""))
	assert.Equal(t, "station.example", first.SelectAttrValue("channel", ""))
	assert.Equal(t, "Morning News", first.SelectElement("title").Text())
	assert.Equal(t, "Daily news roundup.", first.SelectElement("desc").Text())
	assert.Equal(t, "news", first.SelectElement("category").Text())
}

func TestWrite_OmitsEmptyFields(t *testing.T) {
	sch := &scheduler.Schedule{
		Schedule:  storage.Schedule{ID: "sch-2", Type: storage.EmissionBroadcast},
		Programme: &storage.Programme{Name: "Filler", Runtime: 30 * time.Minute},
	}

	var buf bytes.Buffer
	err := Write(&buf, Channel{ID: "station.example", DisplayName: "Example FM"}, seqOf(
		scheduler.Transmission{Schedule: sch, Start: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)},
	))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	prog := doc.SelectElement("tv").SelectElement("programme")
	require.NotNil(t, prog)
	assert.Nil(t, prog.SelectElement("desc"))
	assert.Nil(t, prog.SelectElement("category"))
	assert.Nil(t, doc.SelectElement("tv").SelectElement("channel").SelectElement("url"))
}
