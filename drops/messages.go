package drops

import (
	"fmt"
	"strings"

	"github.com/crptomonkeys/greenwiz/modules/atomicassets"
	"github.com/crptomonkeys/greenwiz/modules/atomictoolsx"
	"github.com/crptomonkeys/greenwiz/types"
)

// maxListedAssets caps how many asset links a direct drop message lists.
const maxListedAssets = 5

func securityNotice(b *strings.Builder, col types.CollectionConfig, domain string) {
	fmt.Fprintf(b, "Avoid scams: before clicking the link, ensure the top level domain is **%s**\n", domain)
	if col.AnnounceTo != "" {
		fmt.Fprintf(b, "As an additional security measure, make sure this drop was also announced in %s."+
			" Impostors can't post there.\n", col.AnnounceTo)
	}
	if col.Web != "" {
		fmt.Fprintf(b, "More information about %s at <%s>", col.DisplayName, col.Web)
	}
}

// DirectDropMessage tells a recipient that assets were sent to their wallet.
func DirectDropMessage(col types.CollectionConfig, wallet string, assets []types.Asset) string {
	var b strings.Builder
	if len(assets) == 1 {
		nft := "NFT."
		if assets[0].ImageHash != "" {
			nft = fmt.Sprintf("[NFT](%s).", atomicassets.ImageURL(assets[0].ImageHash))
		}
		fmt.Fprintf(&b, "Congratulations! You have won a random %s %s It's been sent directly to your linked wallet %s,"+
			" you can see it with the following link\n", col.DisplayName, nft, wallet)
	} else {
		fmt.Fprintf(&b, "Congratulations! You have won %d random %s NFTs! They have been sent directly to your linked"+
			" wallet %s, you can see them with the following links\n", len(assets), col.DisplayName, wallet)
	}
	if len(assets) >= maxListedAssets {
		b.WriteString("Note that only links for the first 5 are included, check out the rest in your profile!\n")
	}
	listed := assets
	if len(listed) > maxListedAssets {
		listed = listed[:maxListedAssets]
	}
	for _, a := range listed {
		fmt.Fprintf(&b, "<%s>\n", atomicassets.AssetURL(a.ID))
	}
	securityNotice(&b, col, "atomichub.io")
	return b.String()
}

// ClaimLinkMessage carries the private claim URLs to a recipient. It must
// never be posted publicly.
func ClaimLinkMessage(col types.CollectionConfig, link *atomictoolsx.Claimlink, n int) string {
	var b strings.Builder
	if n == 1 {
		fmt.Fprintf(&b, "Congratulations! You have won a random %s NFT! You can claim it", col.DisplayName)
	} else {
		fmt.Fprintf(&b, "Congratulations! You have won %d random %s NFTs! You can claim them", n, col.DisplayName)
	}
	fmt.Fprintf(&b, " at the following link (just login with your WAX wallet, might require allowing popups):\n"+
		"[AtomicHub](<%s>) or (same NFT) [NeftyBlocks](<%s>)\n", link.AtomicHubURL(), link.NeftyURL())
	b.WriteString("WARNING: Any one you share this link with can claim it. Do not share with anyone!\n")
	securityNotice(&b, col, "atomichub.io")
	b.WriteString("\nWant to have me send drops to your wallet directly in the future? Link your wallet," +
		" for example `greenwiz wallet link <id> cmcdrops4all`.")
	return b.String()
}

func announceHeader(col types.CollectionConfig, memo string) string {
	header := fmt.Sprintf("**%s Giveaway**", memo)
	if col.Emoji != "" {
		header = col.Emoji + " " + header
	}
	return header
}

// DropAnnouncement is the public post for a direct transfer.
func DropAnnouncement(col types.CollectionConfig, memo string, recipient Recipient, assets []types.Asset) string {
	ids := make([]string, len(assets))
	for i, a := range assets {
		ids[i] = fmt.Sprintf("[#%d](<%s>)", a.ID, atomicassets.AssetURL(a.ID))
	}
	return fmt.Sprintf("%s\n%s (%s) has been sent a random %s NFT, asset %s. Congrats!",
		announceHeader(col, memo), recipient.Name, recipient.ID, col.DisplayName, strings.Join(ids, " "))
}

// LinkAnnouncement is the public post for a claim link. It shows only the
// keyless URL.
func LinkAnnouncement(col types.CollectionConfig, memo string, recipient Recipient, link *atomictoolsx.Claimlink) string {
	return fmt.Sprintf("%s\n%s (%s) has been sent a random %s NFT, claim link [#%s](<%s>). Congrats!",
		announceHeader(col, memo), recipient.Name, recipient.ID, col.DisplayName, link.LinkID, link.PublicURL())
}
