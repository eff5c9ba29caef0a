package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string. Used for request and
// form-instance IDs.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID returns the next account ID from the process-wide node. The
// node number comes from SNOWFLAKE_NODE and defaults to 1 when unset or invalid.
func NewSnowflakeID() int64 {
	nodeOnce.Do(func() {
		node = newNode(nodeFromEnv())
	})
	return node.Generate().Int64()
}

func nodeFromEnv() int64 {
	n, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE"), 10, 64)
	if err != nil {
		return 1
	}
	return n
}

// newNode falls back to node 1 when n is out of the snowflake node range.
func newNode(n int64) *snowflake.Node {
	sn, err := snowflake.NewNode(n)
	if err != nil {
		sn, _ = snowflake.NewNode(1)
	}
	return sn
}
