package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnconfiguredPublisherNoops(t *testing.T) {
	p, err := Connect(Config{})
	require.NoError(t, err)
	require.NoError(t, p.Publish(map[string]string{"build_id": "abc"}))
	p.Close()
}

func TestNilPublisherNoops(t *testing.T) {
	var p *Publisher
	require.NoError(t, p.Publish("anything"))
	p.Close()
}
