package common

import (
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// UUIDint64 returns a unique, time ordered int64 id
func UUIDint64() int64 {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
	return idNode.Generate().Int64()
}

// IsEmptyOrNA reports whether a form value carries no data
func IsEmptyOrNA(val string) bool {
	v := strings.TrimSpace(val)
	return v == "" || strings.EqualFold(v, "N/A")
}

// TrimPtr trims the pointed value, returning nil for nil
func TrimPtr(val *string) *string {
	if val == nil {
		return nil
	}
	v := strings.TrimSpace(*val)
	return &v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// LikeContains builds a LIKE pattern matching val literally anywhere in the column;
// use it with ESCAPE '\'
func LikeContains(val string) string {
	return "%" + likeEscaper.Replace(val) + "%"
}
