package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"szuro.net/zts/pkg/filter"
	"szuro.net/zts/pkg/trapper"
	"szuro.net/zts/pkg/zbx"
)

const (
	ZABBIX_TYPE = "zabbix"
	PRINT_TYPE  = "print"
)

const (
	CK_ZABBIX_SERVER = "zabbix_server"
	CK_ZABBIX_PORT   = "zabbix_port"
	CK_ZABBIX_HOST   = "zabbix_host"
	CK_ZABBIX_KEY    = "zabbix_key"
)

// Channel is a single Zabbix trapper notification channel.
type Channel struct {
	Name     string
	Type     string        `yaml:"type"`
	Output   string        `yaml:"output"`
	Server   string        `yaml:"zabbix_server"`
	Port     string        `yaml:"zabbix_port"`
	Host     string        `yaml:"zabbix_host"`
	Key      string        `yaml:"zabbix_key"`
	Timeout  time.Duration `yaml:"timeout"`
	Compress bool          `yaml:"compress"`
	Filter   ChannelFilter `yaml:"filter"`
}

type ChannelFilter struct {
	filter.DefaultFilter `yaml:",inline"`
	Streams              filter.StreamFilter `yaml:"streams"`
}

// Build returns the filter described by the config.
func (cf ChannelFilter) Build() filter.Filter {
	tags := cf.DefaultFilter
	tags.Activate()
	streams := cf.Streams
	streams.Activate()
	return filter.All(&tags, &streams)
}

func (c *Channel) setDefaults(index int) {
	if c.Name == "" {
		c.Name = fmt.Sprintf("channel-%d", index)
	}
	if c.Type == "" {
		c.Type = ZABBIX_TYPE
	}
	if strings.TrimSpace(c.Port) == "" {
		c.Port = strconv.Itoa(zbx.DEFAULT_PORT)
	}
	if c.Timeout <= 0 {
		c.Timeout = trapper.DEFAULT_TIMEOUT
	}
}

// CheckConfiguration validates the channel and returns the endpoint it describes.
// Print channels only need a host and a key.
func (c Channel) CheckConfiguration() (ep zbx.Endpoint, err error) {
	switch c.Type {
	case ZABBIX_TYPE, "":
	case PRINT_TYPE:
		return c.checkPrint()
	default:
		return ep, fmt.Errorf("unknown channel type %q", c.Type)
	}

	mandatory := []struct {
		key   string
		value string
	}{
		{CK_ZABBIX_SERVER, c.Server},
		{CK_ZABBIX_PORT, c.Port},
		{CK_ZABBIX_HOST, c.Host},
		{CK_ZABBIX_KEY, c.Key},
	}
	for _, m := range mandatory {
		if strings.TrimSpace(m.value) == "" {
			return ep, fmt.Errorf("%s is mandatory and must not be empty", m.key)
		}
	}

	port, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil {
		return ep, fmt.Errorf("%s %q is not a number", CK_ZABBIX_PORT, c.Port)
	}

	ep = zbx.Endpoint{
		Server: strings.TrimSpace(c.Server),
		Port:   port,
		Host:   c.Host,
		Key:    c.Key,
	}
	err = ep.Validate()
	return
}

func (c Channel) checkPrint() (ep zbx.Endpoint, err error) {
	if strings.TrimSpace(c.Host) == "" {
		return ep, fmt.Errorf("%s is mandatory and must not be empty", CK_ZABBIX_HOST)
	}
	if strings.TrimSpace(c.Key) == "" {
		return ep, fmt.Errorf("%s is mandatory and must not be empty", CK_ZABBIX_KEY)
	}
	return zbx.Endpoint{Host: c.Host, Key: c.Key}, nil
}
