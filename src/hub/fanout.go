package hub

import (
	"sync"
	"sync/atomic"
)

// Fanout writes data to every registered client concurrently and waits for
// all writes to finish. A failed write only affects its own client.
func (h *Hub) Fanout(data []byte) (delivered, failed int) {
	clients := h.All()
	if len(clients) == 0 {
		return 0, 0
	}

	var ok, bad atomic.Int64
	var wg sync.WaitGroup
	wg.Add(len(clients))
	for _, c := range clients {
		go func(c *Client) {
			defer wg.Done()
			if err := c.Send(data); err != nil {
				bad.Add(1)
				h.logger.Warn().Err(err).Str("client_id", c.ID).Msg("send failed")
				return
			}
			ok.Add(1)
		}(c)
	}
	wg.Wait()

	return int(ok.Load()), int(bad.Load())
}
