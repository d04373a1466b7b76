package hostid

import (
	"os"

	fqdn "github.com/Showmax/go-fqdn"
	log "github.com/sirupsen/logrus"
)

// Replaced in tests
var (
	fqdnHostname = fqdn.FqdnHostname
	osHostname   = os.Hostname
)

func getHostname(useFullyQualifiedHost bool) string {
	var host string
	if useFullyQualifiedHost {
		log.Info("Trying to get fully qualified hostname")
		var err error
		host, err = fqdnHostname()
		if host == "unknown" || host == "localhost" || err != nil {
			log.WithFields(log.Fields{
				"detail": err,
			}).Info("Error getting fully qualified hostname, using plain hostname")
			host = ""
		}
	}

	if host == "" {
		var err error
		host, err = osHostname()
		if err != nil {
			log.WithError(err).Error("Error getting system simple hostname, cannot set hostname")
			return ""
		}
	}

	log.Infof("Using hostname %s", host)
	return host
}
