package bee

import "fmt"

// version information, set with -ldflags at build time.
var GITLASTTAG string
var GITLASTCOMMIT string

func Version() string {
	return fmt.Sprintf("%s/%s", GITLASTTAG, GITLASTCOMMIT)
}
