package strava

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// synthesizeGPX builds a GPX 1.1 document from the raw stream bundle.
// Strava has no GPX export on its API, only parallel per-metric arrays
// indexed by sample; this reassembles them into the standard track
// shape the rest of the pipeline consumes. The time stream is offsets
// in seconds from the activity start.
func synthesizeGPX(streams *streamSet, name string, startTime time.Time) string {
	if streams == nil || streams.Latlng == nil || len(streams.Latlng.Data) == 0 {
		return ""
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	gpx := doc.CreateElement("gpx")
	gpx.CreateAttr("version", "1.1")
	gpx.CreateAttr("creator", "StrideLog")
	gpx.CreateAttr("xmlns", "http://www.topografix.com/GPX/1/1")
	gpx.CreateAttr("xmlns:gpxtpx", "http://www.garmin.com/xmlschemas/TrackPointExtension/v1")

	trk := gpx.CreateElement("trk")
	if name != "" {
		trk.CreateElement("name").SetText(name)
	}
	trkseg := trk.CreateElement("trkseg")

	for i, latlng := range streams.Latlng.Data {
		if len(latlng) < 2 {
			continue
		}

		trkpt := trkseg.CreateElement("trkpt")
		trkpt.CreateAttr("lat", strconv.FormatFloat(latlng[0], 'f', -1, 64))
		trkpt.CreateAttr("lon", strconv.FormatFloat(latlng[1], 'f', -1, 64))

		if streams.Altitude != nil && i < len(streams.Altitude.Data) {
			trkpt.CreateElement("ele").SetText(strconv.FormatFloat(streams.Altitude.Data[i], 'f', 1, 64))
		}
		if streams.Time != nil && i < len(streams.Time.Data) {
			ts := startTime.Add(time.Duration(streams.Time.Data[i]) * time.Second)
			trkpt.CreateElement("time").SetText(ts.UTC().Format(time.RFC3339))
		}
		if streams.Heartrate != nil && i < len(streams.Heartrate.Data) {
			ext := trkpt.CreateElement("extensions")
			tpx := ext.CreateElement("gpxtpx:TrackPointExtension")
			tpx.CreateElement("gpxtpx:hr").SetText(strconv.Itoa(streams.Heartrate.Data[i]))
		}
	}

	doc.Indent(1)
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}
