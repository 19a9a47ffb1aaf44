package ll

import log "github.com/mgutz/logxi/v1"

var logger = log.New("ll")
