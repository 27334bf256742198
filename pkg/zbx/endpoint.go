package zbx

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// DEFAULT_PORT is the trapper port Zabbix server and proxy listen on.
const DEFAULT_PORT = 10051

// Endpoint identifies where trapper events go and which item they update.
type Endpoint struct {
	// Server is the Zabbix server or proxy address.
	Server string `json:"server"`

	// Port is the trapper port of Server.
	Port int `json:"port"`

	// Host is the host name configured in Zabbix.
	Host string `json:"host"`

	// Key is the key of a trapper item on Host.
	Key string `json:"key"`
}

// Validate reports the first missing or malformed field.
func (e Endpoint) Validate() error {
	if e.Server == "" {
		return errors.New("zabbix server is mandatory and must not be empty")
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("zabbix port %d is out of range 1-65535", e.Port)
	}
	if e.Host == "" {
		return errors.New("zabbix host is mandatory and must not be empty")
	}
	if e.Key == "" {
		return errors.New("zabbix key is mandatory and must not be empty")
	}
	return nil
}

// Address returns Server:Port in a form accepted by net.Dial.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Server, strconv.Itoa(e.Port))
}
