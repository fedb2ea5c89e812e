// Snapshot codecs: the two opaque blobs the engine is loaded from and
// saved to. Stored state is advisory from the engine's point of view,
// so a blob that fails to decode resets that collection to empty
// instead of propagating a fatal error.

package core

import "encoding/json"

// DecodeInvestments decodes the investment-collection blob. A nil,
// empty, or malformed blob yields an empty collection. Elements stored
// without an order field (older snapshots) are assigned their position
// in the stored sequence.
func DecodeInvestments(blob []byte) []Investment {
	if len(blob) == 0 {
		return []Investment{}
	}
	var list []Investment
	if err := json.Unmarshal(blob, &list); err != nil {
		return []Investment{}
	}
	var probes []struct {
		Order *int `json:"order"`
	}
	if err := json.Unmarshal(blob, &probes); err == nil {
		for i := range list {
			if i < len(probes) && probes[i].Order == nil {
				list[i].Order = i
			}
		}
	}
	return list
}

// EncodeInvestments encodes the collection for storage. Every element
// carries its order field.
func EncodeInvestments(investments []Investment) ([]byte, error) {
	if investments == nil {
		investments = []Investment{}
	}
	return json.Marshal(investments)
}

// DecodeSettings decodes the settings blob. A nil, empty, or malformed
// blob yields empty settings; an absent or null rate-color mapping
// becomes an empty map.
func DecodeSettings(blob []byte) Settings {
	if len(blob) == 0 {
		return Settings{}.Normalized()
	}
	var s Settings
	if err := json.Unmarshal(blob, &s); err != nil {
		return Settings{}.Normalized()
	}
	return s.Normalized()
}

// EncodeSettings encodes the settings for storage.
func EncodeSettings(s Settings) ([]byte, error) {
	return json.Marshal(s.Normalized())
}
