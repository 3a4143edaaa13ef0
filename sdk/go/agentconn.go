package wsdecksdk

import "slices"

type ListeningPortNetwork string

const ListeningPortNetworkTCP ListeningPortNetwork = "tcp"

var ListeningPortNetworks = []ListeningPortNetwork{ListeningPortNetworkTCP}

func (n ListeningPortNetwork) Valid() bool { return slices.Contains(ListeningPortNetworks, n) }

func (n ListeningPortNetwork) MarshalText() ([]byte, error) {
	return marshalEnum("ListeningPortNetwork", n, ListeningPortNetworks)
}

func (n *ListeningPortNetwork) UnmarshalText(b []byte) error {
	return unmarshalEnum("ListeningPortNetwork", b, ListeningPortNetworks, n)
}

type ListeningPort struct {
	ProcessName string               `json:"process_name"`
	Network     ListeningPortNetwork `json:"network"`
	Port        uint16               `json:"port"`
}

type ListeningPortsResponse struct {
	Ports []ListeningPort `json:"ports"`
}
