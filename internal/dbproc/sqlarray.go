package dbproc

import "github.com/lib/pq"

// pqStringArray adapts a *[]string scan destination to lib/pq's array
// codec, used for every roles/roles_snapshot column.
func pqStringArray(dest *[]string) interface{} {
	return pq.Array(dest)
}

// pqStringArrayIn adapts a []string bind argument to lib/pq's array
// codec for insert/update statements.
func pqStringArrayIn(values []string) interface{} {
	return pq.Array(values)
}
