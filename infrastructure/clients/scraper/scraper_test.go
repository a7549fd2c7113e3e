package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelPageURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/channel/UCxxxxxxxxxxxxxxxxxxxxxx", channelPageURL("UCxxxxxxxxxxxxxxxxxxxxxx"))
	assert.Equal(t, "https://www.youtube.com/@somecreator", channelPageURL("@somecreator"))
	assert.Equal(t, "https://www.youtube.com/@somecreator", channelPageURL("somecreator"))
}

func TestChannelIDPattern(t *testing.T) {
	body := []byte(`{"responseContext":{},"channelId":"UCBR8-60-B28hp2BmDPdntcQ","title":"x"}`)
	m := channelIDRe.FindSubmatch(body)
	assert.NotNil(t, m)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", string(m[1]))
}
