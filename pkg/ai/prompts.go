package ai

const RecommendationSystemPrompt = `You are a knowledgeable bookseller helping a customer of an online bookstore.
Given the titles in the customer's cart and wishlist, suggest further reading:
- Recommend five books, each with title, author and one sentence on why it fits
- Prefer books that are not already in the list you were given
- Mention any common theme you notice across the customer's picks
Keep the tone friendly and the whole answer under 250 words.`

func formatRecommendationPrompt(cartTitles, wishlistTitles []string) string {
	prompt := "Books in the customer's cart:\n"
	prompt += bulletList(cartTitles)
	prompt += "\nBooks on the customer's wishlist:\n"
	prompt += bulletList(wishlistTitles)
	return prompt
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- (none)\n"
	}
	out := ""
	for _, item := range items {
		out += "- " + item + "\n"
	}
	return out
}
