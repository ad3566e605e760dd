package drops

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/crptomonkeys/greenwiz/modules/atomictoolsx"
	"github.com/crptomonkeys/greenwiz/types"
)

func TestMessagesGolden(t *testing.T) {
	col := testCollectionConfig()
	link := &atomictoolsx.Claimlink{LinkID: "1234567", PrivateKey: "5KTESTKEY"}
	carol := Recipient{ID: "42", Name: "carol"}

	tests := []struct {
		name string
		text string
	}{
		{
			name: "direct_single",
			text: DirectDropMessage(col, "cmcdrops4all", []types.Asset{{ID: 1099512167123, ImageHash: "QmHash"}}),
		},
		{
			name: "claimlink_single",
			text: ClaimLinkMessage(col, link, 1),
		},
		{
			name: "announce_link",
			text: LinkAnnouncement(col, "Welcome (carol)", carol, link),
		},
		{
			name: "announce_direct",
			text: DropAnnouncement(col, "Welcome (carol)", carol, []types.Asset{{ID: 1}, {ID: 2}}),
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(tt.text))
		})
	}
}

func TestDirectDropMessageListsFirstFive(t *testing.T) {
	assets := make([]types.Asset, 7)
	for i := range assets {
		assets[i] = types.Asset{ID: uint64(100 + i)}
	}
	msg := DirectDropMessage(testCollectionConfig(), "cmcdrops4all", assets)
	assert.Contains(t, msg, "You have won 7 random cryptomonKeys NFTs!")
	assert.Contains(t, msg, "only links for the first 5")
	assert.Contains(t, msg, "wax-mainnet/104>")
	assert.NotContains(t, msg, "wax-mainnet/105>")
}

func TestClaimLinkMessageCarriesKeyAndAnnouncementDoesNot(t *testing.T) {
	link := &atomictoolsx.Claimlink{LinkID: "9", PrivateKey: "5Ksecret"}
	col := testCollectionConfig()
	assert.Contains(t, ClaimLinkMessage(col, link, 2), "You have won 2 random cryptomonKeys NFTs! You can claim them")
	assert.Contains(t, ClaimLinkMessage(col, link, 1), "?key=5Ksecret")
	assert.NotContains(t, LinkAnnouncement(col, "m", Recipient{ID: "1", Name: "x"}, link), "5Ksecret")
}
