// Package config parses the connection URI and holds the tunable knobs from
// spec §6: connect/socket timeouts, secondary-acceptable-latency, message
// size ceilings, retry counts, and pool sizing, plus an optional on-disk
// override file the process can hot-reload.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package config

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nereusdb/ndbc/cos"
)

// URI is the parsed form of a connection string:
//
//	ndb://[user:pass@]host1[:port1][,host2[:port2]...][/database][?options]
type URI struct {
	Scheme                      string
	Hosts                       []HostPort
	Username, Password          string
	Database                    string
	ReplicaSet                  string
	SlaveOK                     bool
	SSL                         bool
	SSLAllowInvalidCertificates bool
	AuthSource                  string
	ConnectTimeoutMS            int
	SocketTimeoutMS             int
	SecondaryAcceptableLatencyMS int
	W                           string
	Journal                     bool
	WTimeoutMS                  int
	ReadPreferenceTags          []map[string]string
	MaxPoolSize                 int
	MinPoolSize                 int
}

type HostPort struct {
	Host string
	Port int
}

const defaultPort = 27017

// ParseURI parses a connection string into a URI, applying the defaults from
// spec §6 for any option the caller omits.
func ParseURI(raw string) (*URI, error) {
	// url.Parse rejects a seed list in which a host other than the last
	// carries a port ("h1:1,h2"), so the host list is cut out of the
	// authority here and url.Parse is handed a single placeholder host.
	toParse, hostSpec := raw, ""
	if i := strings.Index(raw, "://"); i >= 0 {
		rest := raw[i+3:]
		end := strings.IndexAny(rest, "/?")
		if end < 0 {
			end = len(rest)
		}
		start := strings.LastIndex(rest[:end], "@") + 1
		hostSpec = rest[start:end]
		toParse = raw[:i+3] + rest[:start] + "seed" + rest[end:]
	}
	u, err := url.Parse(toParse)
	if err != nil {
		return nil, cos.NewErr(cos.DomainClient, cos.CodeClientNotReady, "invalid uri: %v", err)
	}
	if u.Scheme == "" {
		return nil, cos.NewErr(cos.DomainClient, cos.CodeClientNotReady, "uri missing scheme: %q", raw)
	}
	out := Default()
	out.Scheme = u.Scheme
	if u.User != nil {
		out.Username = u.User.Username()
		out.Password, _ = u.User.Password()
	}
	out.Database = strings.TrimPrefix(u.Path, "/")

	// hostSpec is the comma-separated seed list cut out above.
	for _, hp := range strings.Split(hostSpec, ",") {
		if hp == "" {
			continue
		}
		host, port := hp, defaultPort
		if idx := strings.LastIndex(hp, ":"); idx >= 0 {
			host = hp[:idx]
			if p, err := strconv.Atoi(hp[idx+1:]); err == nil {
				port = p
			}
		}
		out.Hosts = append(out.Hosts, HostPort{Host: host, Port: port})
	}
	if len(out.Hosts) == 0 {
		return nil, cos.NewErr(cos.DomainClient, cos.CodeClientNotReady, "uri has no hosts: %q", raw)
	}

	q := u.Query()
	if v := q.Get("replicaSet"); v != "" {
		out.ReplicaSet = v
	}
	out.SlaveOK = parseBool(q.Get("slaveOk"), out.SlaveOK)
	out.SSL = parseBool(q.Get("ssl"), out.SSL)
	out.SSLAllowInvalidCertificates = parseBool(q.Get("sslAllowInvalidCertificates"), out.SSLAllowInvalidCertificates)
	if v := q.Get("authSource"); v != "" {
		out.AuthSource = v
	}
	out.ConnectTimeoutMS = parseInt(q.Get("connectTimeoutMS"), out.ConnectTimeoutMS)
	out.SocketTimeoutMS = parseInt(q.Get("socketTimeoutMS"), out.SocketTimeoutMS)
	out.SecondaryAcceptableLatencyMS = parseInt(q.Get("secondaryAcceptableLatencyMS"), out.SecondaryAcceptableLatencyMS)
	if v := q.Get("w"); v != "" {
		out.W = v
	}
	out.Journal = parseBool(q.Get("journal"), out.Journal)
	out.WTimeoutMS = parseInt(q.Get("wtimeoutMS"), out.WTimeoutMS)
	out.MaxPoolSize = parseInt(q.Get("maxPoolSize"), out.MaxPoolSize)
	out.MinPoolSize = parseInt(q.Get("minPoolSize"), out.MinPoolSize)
	if v := q.Get("readPreferenceTags"); v != "" {
		out.ReadPreferenceTags = append(out.ReadPreferenceTags, parseTagSet(v))
	}
	return out, nil
}

func parseTagSet(v string) map[string]string {
	tags := map[string]string{}
	for _, kv := range strings.Split(v, ",") {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) == 2 {
			tags[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return tags
}

func parseBool(s string, def bool) bool {
	switch s {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (u *URI) Addresses() []string {
	out := make([]string, len(u.Hosts))
	for i, h := range u.Hosts {
		out[i] = h.Host + ":" + strconv.Itoa(h.Port)
	}
	return out
}
