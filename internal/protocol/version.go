package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

var (
	versionOnce sync.Once
	versionHash string
)

// APIVersionHash fingerprints the message tables of this build. It is sent as the "version" query
// parameter so the server can refuse clients speaking another protocol revision.
func APIVersionHash() string {
	versionOnce.Do(func() {
		h := sha256.New()
		writeTable(h, "client", clientCases)
		writeTable(h, "server", serverCases)
		writeTable(h, "sub", subCases)
		writeTable(h, "query", queryCases)
		writeTable(h, "answer", answerCases)
		versionHash = hex.EncodeToString(h.Sum(nil))[:16]
	})
	return versionHash
}

func writeTable[T message](w io.Writer, label string, cases map[caseNumber]oneofCase[T]) {
	lines := make([]string, 0, len(cases))
	for n, c := range cases {
		lines = append(lines, fmt.Sprintf("%s.%d=%s", label, n, c.name))
	}
	sort.Strings(lines)
	_, _ = w.Write([]byte(strings.Join(lines, "\n")))
}
