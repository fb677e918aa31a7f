package admin

import "time"

// timeNow is indirected so tests can use a fixed clock to assert on
// audit event timestamps without racing the wall clock.
var timeNow = time.Now
