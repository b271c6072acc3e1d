// Package filters has helper functions for network data that the
// evaluators make available to expressions.
package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
)

var (
	interfaceName = regexp.MustCompile(`^([A-Za-z\-]*)(.+)`)
	alphaPrefix   = regexp.MustCompile(`^([A-Za-z]*)(.+)`)
)

// InterfaceSplit splits an interface name like "GigabitEthernet0/1"
// into {"name":"GigabitEthernet","index":"0/1"}.
//
// If key is not empty, only that property is returned.
func InterfaceSplit(iface string, key string) (interface{}, error) {
	m := interfaceName.FindStringSubmatch(iface)
	if m == nil {
		return nil, fmt.Errorf("unable to parse interface %q", iface)
	}
	obj := map[string]interface{}{
		"name":  m[1],
		"index": m[2],
	}
	if key == "" {
		return obj, nil
	}
	v, have := obj[key]
	if !have {
		return nil, fmt.Errorf("interface_split: unknown key %q", key)
	}
	return v, nil
}

// InterfaceRange expands an interface range like "Ethernet1/1-3,5"
// into ["Ethernet1/1","Ethernet1/2","Ethernet1/3","Ethernet1/5"].
func InterfaceRange(iface string) ([]string, error) {
	var prefix, index string
	if i := strings.LastIndex(iface, "/"); 0 <= i {
		prefix, index = iface[:i+1], iface[i+1:]
	} else {
		m := alphaPrefix.FindStringSubmatch(iface)
		if m == nil {
			return nil, fmt.Errorf("unable to parse interface %q", iface)
		}
		prefix, index = m[1], m[2]
	}

	ns, err := expand(index)
	if err != nil {
		return nil, err
	}
	acc := make([]string, len(ns))
	for i, n := range ns {
		acc[i] = prefix + n
	}
	return acc, nil
}

// VlanExpand expands a VLAN list like "vlan10-12,20" into
// ["10","11","12","20"].  Any alphabetic prefix is dropped.
func VlanExpand(vlan string) ([]string, error) {
	m := alphaPrefix.FindStringSubmatch(vlan)
	if m == nil {
		return nil, fmt.Errorf("unable to parse vlan %q", vlan)
	}
	ns, err := expand(m[2])
	if err != nil {
		return nil, err
	}
	for i, n := range ns {
		id, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("bad vlan %q in %q", n, vlan)
		}
		ns[i] = strconv.Itoa(id)
	}
	return ns, nil
}

// expand turns "1-3,5" into ["1","2","3","5"].  Items that aren't
// ranges are kept as they are.
func expand(index string) ([]string, error) {
	acc := make([]string, 0, 8)
	for _, item := range strings.Split(index, ",") {
		tokens := strings.Split(item, "-")
		switch len(tokens) {
		case 1:
			acc = append(acc, tokens[0])
		case 2:
			from, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
			if err != nil {
				return nil, fmt.Errorf("bad range start in %q", item)
			}
			to, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
			if err != nil {
				return nil, fmt.Errorf("bad range end in %q", item)
			}
			for i := from; i <= to; i++ {
				acc = append(acc, strconv.Itoa(i))
			}
		default:
			return nil, fmt.Errorf("bad range %q", item)
		}
	}
	return acc, nil
}

// CronNext returns a string representing (RFC3339Nano) the next time
// for the given crontab expression.
func CronNext(expr string) (string, error) {
	c, err := cronexpr.Parse(expr)
	if err != nil {
		return "", err
	}
	return c.Next(time.Now()).UTC().Format(time.RFC3339Nano), nil
}

// Func describes a helper for evaluators that register functions by
// name.
type Func struct {
	Name string
	Doc  string
}

// Funcs lists the helpers.
var Funcs = []Func{
	{"interface_split", "interface_split(name[, key]): split an interface name into name and index"},
	{"interface_range", "interface_range(spec): expand an interface range"},
	{"vlan_expand", "vlan_expand(spec): expand a VLAN list"},
	{"cronNext", "cronNext(expr): next time for a crontab expression"},
}
