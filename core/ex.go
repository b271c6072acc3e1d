package core

import (
	"context"
)

// InterfacesText is example device output for InterfacesSource.
var InterfacesText = `eth0 is up, line protocol is up
  MTU 1500 bytes
eth1 is down, line protocol is down
  MTU 9000 bytes
lo is up, line protocol is up
  MTU 65536 bytes
`

// InterfacesSource makes an example raw rule document that's useful
// to have around.
//
// The document splits "show interfaces"-style output into one section
// per interface, matches each section, and exports an "interfaces"
// fact that maps each interface name to its state and MTU.
//
// The expressions are only variable references, so any Evaluator
// should be able to run this document.
func InterfacesSource() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"parser_metadata": map[string]interface{}{
				"name":        "interfaces",
				"version":     "1.0",
				"description": "Parses the state and MTU of each interface.",
			},
		},
		map[string]interface{}{
			"name": "split output into interface sections",
			"pattern_match": map[string]interface{}{
				"regex":        `^\S+ is `,
				"match_all":    true,
				"match_greedy": true,
			},
			"register": "sections",
		},
		map[string]interface{}{
			"name": "match interface attributes",
			"loop": "sections",
			"pattern_match": map[string]interface{}{
				"regex":    `^(?P<name>\S+) is (?P<state>up|down).*\n\s+MTU (?P<mtu>\d+)`,
				"contents": "{{ item }}",
			},
			"register": "matched",
		},
		map[string]interface{}{
			"name": "build interfaces",
			"json_template": map[string]interface{}{
				"template": []interface{}{
					map[string]interface{}{
						"key":        "interfaces",
						"repeat_for": "matched",
						"object": []interface{}{
							map[string]interface{}{
								"key": "{{ item.name }}",
								"object": []interface{}{
									map[string]interface{}{
										"key":   "state",
										"value": "{{ item.state }}",
									},
									map[string]interface{}{
										"key":   "mtu",
										"value": "{{ item.mtu }}",
									},
								},
							},
						},
					},
				},
			},
			"export": true,
		},
	}
}

// InterfacesDocument compiles InterfacesSource.
func InterfacesDocument(ctx context.Context, ev Evaluator) (*Document, error) {
	doc, err := Compile(ctx, ev, InterfacesSource())
	if err != nil {
		return nil, err
	}
	doc.Name = "interfaces"
	return doc, nil
}
