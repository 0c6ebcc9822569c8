package aprs

import (
	"strings"
	"time"

	"github.com/dl7ad/pecantrack/internal/ax25"
)

// HeardStation is one entry in the APRSD heard-set: a station heard
// directly (never digipeated) within the reporting window.
type HeardStation struct {
	Call    ax25.Address
	HeardAt time.Time
}

// EncodeAPRSD builds the APRSD response: ":CALLSIGN :Directs=CALL1,CALL2,...".
func EncodeAPRSD(to ax25.Address, heard []HeardStation) []byte {
	addressee := formatAddressee(to)
	var calls []string
	for _, h := range heard {
		calls = append(calls, h.Call.String())
	}
	return []byte(":" + addressee + ":Directs=" + strings.Join(calls, ","))
}
