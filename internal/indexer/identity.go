package indexer

import (
	"strconv"
	"strings"

	"cetusindexer/internal/dex"
	"cetusindexer/internal/typetag"
)

// Identity builds the primary key of a decoded event:
// <package>-<digest>-<kind>-<ordinal>, where ordinal counts earlier decoded
// events of the same kind within the transaction.
func Identity(packageID, txDigest string, kind dex.EventKind, ordinal int) string {
	var b strings.Builder
	pkg := canonicalPackage(packageID)
	b.Grow(len(pkg) + len(txDigest) + 16)
	b.WriteString(pkg)
	b.WriteByte('-')
	b.WriteString(txDigest)
	b.WriteByte('-')
	b.WriteString(kind.Tag())
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(ordinal))
	return b.String()
}

// canonicalPackage pads short package ids so 0x2 and 0x00..02 key the same
// rows. Ids that are not hex are used verbatim.
func canonicalPackage(packageID string) string {
	addr, err := typetag.ParseAddress(packageID)
	if err != nil {
		return strings.TrimSpace(packageID)
	}
	return addr.Hex()
}
