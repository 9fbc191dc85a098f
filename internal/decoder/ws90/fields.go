package ws90

import (
	"encoding/hex"
	"fmt"
	"math"
)

// Raw sentinel encodings meaning "no valid reading".
const (
	sentinelByte = 0xff
	sentinelWord = 0xffff
	sentinelTemp = 0x3ff
	sentinelWind = 0x1ff
)

// packedField describes a measurement split between most-significant bits
// in the shared flags byte (frame index 7) and a full least-significant
// byte elsewhere in the frame.
type packedField struct {
	mask     byte // flags bits holding the MSB portion
	shift    uint // left shift aligning those bits above the LSB byte
	lsbIndex int  // frame index of the LSB byte
	sentinel int  // raw value meaning "not reported"
}

var (
	tempField     = packedField{mask: 0x03, shift: 8, lsbIndex: 8, sentinel: sentinelTemp}
	windAvgField  = packedField{mask: 0x10, shift: 4, lsbIndex: 10, sentinel: sentinelWind}
	windDirField  = packedField{mask: 0x20, shift: 3, lsbIndex: 11, sentinel: sentinelWind}
	windGustField = packedField{mask: 0x40, shift: 2, lsbIndex: 12, sentinel: sentinelWind}
)

// combine reconstructs the raw value from the flags byte and the LSB byte.
func (p packedField) combine(frame []byte) int {
	return int(frame[7]&p.mask)<<p.shift | int(frame[p.lsbIndex])
}

// emitFields converts a verified frame into the output record. Fields
// governed by a sentinel are inserted only when valid; everything else is
// unconditional.
func emitFields(frame []byte, lay layout) map[string]any {
	id := int(frame[1])<<16 | int(frame[2])<<8 | int(frame[3])
	lightRaw := int(frame[4])<<8 | int(frame[5])
	batteryMV := int(frame[6]) * 20
	// 1.68V-3.0V maps onto 0-100.
	batteryLvl := 0
	if batteryMV >= 1680 {
		batteryLvl = (batteryMV - 1680) / 16
	}
	if batteryLvl > 100 {
		batteryLvl = 100
	}
	flags := int(frame[7])
	tempRaw := tempField.combine(frame)
	humidity := int(frame[9])
	windAvg := windAvgField.combine(frame)
	windDir := windDirField.combine(frame)
	windGust := windGustField.combine(frame)
	uvRaw := int(frame[13])

	fields := map[string]any{
		"model":      modelName,
		"id":         fmt.Sprintf("%06x", id),
		"battery_ok": roundTo(float64(batteryLvl)*0.01, 2),
		"battery_mV": batteryMV,
	}
	if tempRaw != tempField.sentinel {
		fields["temperature_C"] = roundTo(float64(tempRaw-400)*0.1, 1)
	}
	if humidity != sentinelByte {
		fields["humidity"] = humidity
	}
	if windDir != windDirField.sentinel {
		fields["wind_dir_deg"] = windDir
	}
	if windAvg != windAvgField.sentinel {
		fields["wind_avg_m_s"] = roundTo(float64(windAvg)*0.1, 1)
	}
	if windGust != windGustField.sentinel {
		fields["wind_max_m_s"] = roundTo(float64(windGust)*0.1, 1)
	}
	if uvRaw != sentinelByte {
		fields["uv"] = roundTo(float64(uvRaw)*0.1, 1)
	}
	if lightRaw != sentinelWord {
		fields["lux"] = roundTo(float64(lightRaw)*10, 1)
	}
	fields["flags"] = flags

	if lay.name == layoutExtended {
		rainRaw := int(frame[19])<<8 | int(frame[20])
		capRaw := int(frame[21] & 0x3f)
		fields["rain_mm"] = roundTo(float64(rainRaw)*0.1, 1)
		if capRaw != sentinelByte {
			fields["supercap_V"] = roundTo(float64(capRaw)*0.1, 1)
		}
		fields["firmware"] = int(frame[29])
		fields["data"] = extendedExtra(frame)
	} else {
		rainRaw := int(frame[19]&0x0f)<<8 | int(frame[20])
		fields["rain_mm"] = roundTo(float64(rainRaw)*0.1, 1)
		fields["data"] = legacyExtra(frame)
	}
	fields["mic"] = "CRC"
	return fields
}

// extendedExtra renders the uninterpreted bytes, skipping the rain counter
// (19-20) and supercap byte (21), and the firmware byte (29).
func extendedExtra(frame []byte) string {
	return hex.EncodeToString(frame[14:19]) + "------" + hex.EncodeToString(frame[22:29])
}

// legacyExtra renders the uninterpreted bytes, skipping only the rain
// counter; the legacy layout assigns no meaning to bytes 21-29.
func legacyExtra(frame []byte) string {
	return hex.EncodeToString(frame[14:19]) + "----" + hex.EncodeToString(frame[21:30])
}

func roundTo(value float64, decimals int) float64 {
	pow := math.Pow10(decimals)
	return math.Round(value*pow) / pow
}
