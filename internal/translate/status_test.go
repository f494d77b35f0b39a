package translate

import (
	"context"
	"strings"
	"testing"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
)

const testPostURI = "at://did:plc:alice/app.bsky.feed.post/3k44dee"

func basicAuthor(did, handle string) *bsky.ActorDefs_ProfileViewBasic {
	return &bsky.ActorDefs_ProfileViewBasic{Did: did, Handle: handle}
}

func postView(text string, facets []*bsky.RichtextFacet) *bsky.FeedDefs_PostView {
	return &bsky.FeedDefs_PostView{
		Uri:    testPostURI,
		Cid:    "bafyreib",
		Author: basicAuthor("did:plc:alice", "alice.bsky.social"),
		Record: &lexutil.LexiconTypeDecoder{Val: &bsky.FeedPost{
			Text:      text,
			CreatedAt: "2024-01-15T10:30:00.000Z",
			Facets:    facets,
		}},
		IndexedAt: "2024-01-15T10:30:05.000Z",
	}
}

func TestStatus_Plain(t *testing.T) {
	tr, ids := newTestTranslator(t)
	ctx := context.Background()

	status, err := tr.Status(ctx, postView("Hello world", nil))
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if status.Content != "<p>Hello world</p>" {
		t.Errorf("Content = %q", status.Content)
	}
	if status.Text == nil || *status.Text != "Hello world" {
		t.Errorf("Text = %v", status.Text)
	}
	if status.URI != testPostURI {
		t.Errorf("URI = %q", status.URI)
	}
	if status.URL != "https://bsky.app/profile/alice.bsky.social/post/3k44dee" {
		t.Errorf("URL = %q", status.URL)
	}
	if status.Visibility != "public" {
		t.Errorf("Visibility = %q", status.Visibility)
	}
	if status.Favourited || status.Reblogged {
		t.Error("viewer flags should default to false")
	}
	if status.MediaAttachments == nil || status.Mentions == nil || status.Tags == nil || status.Emojis == nil {
		t.Error("collections must be empty slices, not nil")
	}
	// created_at comes from the record, not the index time.
	if got := status.CreatedAt.Format("15:04:05"); got != "10:30:00" {
		t.Errorf("CreatedAt = %s, want record time", got)
	}

	// Same post translates to the same ID.
	again, err := tr.Status(ctx, postView("Hello world", nil))
	if err != nil {
		t.Fatalf("second Status failed: %v", err)
	}
	if again.ID != status.ID {
		t.Errorf("ID changed across translations: %s vs %s", status.ID, again.ID)
	}

	uri, err := ids.ATURIForSnowflake(ctx, mustParseID(t, status.ID))
	if err != nil || uri != testPostURI {
		t.Errorf("reverse lookup = %q, %v", uri, err)
	}
}

func mustParseID(t *testing.T, s string) int64 {
	t.Helper()
	var id int64
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("non-numeric id %q", s)
		}
		id = id*10 + int64(r-'0')
	}
	return id
}

func TestStatus_Counts(t *testing.T) {
	tr, _ := newTestTranslator(t)

	post := postView("counted", nil)
	post.ReplyCount = i64Ptr(3)
	post.RepostCount = i64Ptr(5)
	post.LikeCount = i64Ptr(7)
	like := "at://did:plc:me/app.bsky.feed.like/abc"
	post.Viewer = &bsky.FeedDefs_ViewerState{Like: &like}

	status, err := tr.Status(context.Background(), post)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.RepliesCount != 3 || status.ReblogsCount != 5 || status.FavouritesCount != 7 {
		t.Errorf("counts = %d/%d/%d", status.RepliesCount, status.ReblogsCount, status.FavouritesCount)
	}
	if !status.Favourited {
		t.Error("Favourited = false, want true")
	}
	if status.Reblogged {
		t.Error("Reblogged = true, want false")
	}
}

func TestStatus_MentionFacet(t *testing.T) {
	tr, ids := newTestTranslator(t)
	ctx := context.Background()

	text := "Hello @bob.bsky.social!"
	facets := []*bsky.RichtextFacet{{
		Index: &bsky.RichtextFacet_ByteSlice{ByteStart: 6, ByteEnd: 22},
		Features: []*bsky.RichtextFacet_Features_Elem{{
			RichtextFacet_Mention: &bsky.RichtextFacet_Mention{Did: "did:plc:bob"},
		}},
	}}

	status, err := tr.Status(ctx, postView(text, facets))
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if !strings.Contains(status.Content, `class="u-url mention"`) {
		t.Errorf("Content missing mention markup: %q", status.Content)
	}
	if len(status.Mentions) != 1 {
		t.Fatalf("Mentions = %d, want 1", len(status.Mentions))
	}
	m := status.Mentions[0]
	if m.Acct != "bob.bsky.social" || m.Username != "bob" {
		t.Errorf("mention = %+v", m)
	}
	if m.URL != "https://bsky.app/profile/bob.bsky.social" {
		t.Errorf("mention URL = %q", m.URL)
	}

	bobID, _ := ids.SnowflakeForDID(ctx, "did:plc:bob")
	if m.ID == "" || mustParseID(t, m.ID) != bobID {
		t.Errorf("mention ID = %q, want %d", m.ID, bobID)
	}

	// The mention also records the handle mapping.
	if id, _ := ids.SnowflakeForHandle(ctx, "bob.bsky.social"); id != bobID {
		t.Errorf("handle mapping = %d, want %d", id, bobID)
	}
}

func TestStatus_TagFacet(t *testing.T) {
	tr, _ := newTestTranslator(t)

	text := "shipping #golang today"
	facets := []*bsky.RichtextFacet{{
		Index: &bsky.RichtextFacet_ByteSlice{ByteStart: 9, ByteEnd: 16},
		Features: []*bsky.RichtextFacet_Features_Elem{{
			RichtextFacet_Tag: &bsky.RichtextFacet_Tag{Tag: "golang"},
		}},
	}}

	status, err := tr.Status(context.Background(), postView(text, facets))
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.Tags) != 1 {
		t.Fatalf("Tags = %d, want 1", len(status.Tags))
	}
	if status.Tags[0].Name != "golang" || status.Tags[0].URL != "https://bsky.app/hashtag/golang" {
		t.Errorf("tag = %+v", status.Tags[0])
	}
	if !strings.Contains(status.Content, `class="mention hashtag"`) {
		t.Errorf("Content missing hashtag markup: %q", status.Content)
	}
}

func TestStatus_Reply(t *testing.T) {
	tr, ids := newTestTranslator(t)
	ctx := context.Background()

	parentURI := "at://did:plc:carol/app.bsky.feed.post/3k00aaa"
	post := postView("replying", nil)
	post.Record.Val.(*bsky.FeedPost).Reply = &bsky.FeedPost_ReplyRef{
		Root:   &comatproto.RepoStrongRef{Uri: parentURI, Cid: "bafyroot"},
		Parent: &comatproto.RepoStrongRef{Uri: parentURI, Cid: "bafyparent"},
	}

	status, err := tr.Status(ctx, post)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.InReplyToID == nil {
		t.Fatal("InReplyToID = nil")
	}
	parentID, _ := ids.SnowflakeForATURI(ctx, parentURI)
	if mustParseID(t, *status.InReplyToID) != parentID {
		t.Errorf("InReplyToID = %s, want %d", *status.InReplyToID, parentID)
	}
	if status.InReplyToAccountID == nil {
		t.Fatal("InReplyToAccountID = nil")
	}
	carolID, _ := ids.SnowflakeForDID(ctx, "did:plc:carol")
	if mustParseID(t, *status.InReplyToAccountID) != carolID {
		t.Errorf("InReplyToAccountID = %s, want %d", *status.InReplyToAccountID, carolID)
	}
}

func TestStatus_ImageEmbed(t *testing.T) {
	tr, _ := newTestTranslator(t)

	post := postView("with pics", nil)
	post.Embed = &bsky.FeedDefs_PostView_Embed{
		EmbedImages_View: &bsky.EmbedImages_View{
			Images: []*bsky.EmbedImages_ViewImage{
				{Thumb: "https://cdn.example/t1.jpg", Fullsize: "https://cdn.example/f1.jpg", Alt: "first"},
				{Thumb: "https://cdn.example/t2.jpg", Fullsize: "https://cdn.example/f2.jpg", Alt: ""},
			},
		},
	}

	status, err := tr.Status(context.Background(), post)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.MediaAttachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(status.MediaAttachments))
	}
	a := status.MediaAttachments[0]
	if a.Type != "image" || a.URL != "https://cdn.example/f1.jpg" || a.PreviewURL != "https://cdn.example/t1.jpg" {
		t.Errorf("attachment = %+v", a)
	}
	if a.Description == nil || *a.Description != "first" {
		t.Errorf("Description = %v", a.Description)
	}
	if status.MediaAttachments[0].ID == status.MediaAttachments[1].ID {
		t.Error("attachment IDs must differ")
	}

	// IDs are stable across translations.
	again, _ := tr.Status(context.Background(), post)
	if again.MediaAttachments[0].ID != status.MediaAttachments[0].ID {
		t.Error("attachment ID changed across translations")
	}
}

func TestStatus_ExternalEmbed(t *testing.T) {
	tr, _ := newTestTranslator(t)

	thumb := "https://cdn.example/thumb.jpg"
	post := postView("check this out", nil)
	post.Embed = &bsky.FeedDefs_PostView_Embed{
		EmbedExternal_View: &bsky.EmbedExternal_View{
			External: &bsky.EmbedExternal_ViewExternal{
				Uri:         "https://example.com/article",
				Title:       "An Article",
				Description: "about things",
				Thumb:       &thumb,
			},
		},
	}

	status, err := tr.Status(context.Background(), post)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Card == nil {
		t.Fatal("Card = nil")
	}
	if status.Card.URL != "https://example.com/article" || status.Card.Title != "An Article" ||
		status.Card.Type != "link" {
		t.Errorf("card = %+v", status.Card)
	}
	if status.Card.Image == nil || *status.Card.Image != thumb {
		t.Errorf("card image = %v", status.Card.Image)
	}
}

func TestStatus_Language(t *testing.T) {
	tr, _ := newTestTranslator(t)

	post := postView("bonjour", nil)
	post.Record.Val.(*bsky.FeedPost).Langs = []string{"fr", "en"}

	status, err := tr.Status(context.Background(), post)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Language == nil || *status.Language != "fr" {
		t.Errorf("Language = %v, want fr", status.Language)
	}
}

func TestStatus_MissingRecord(t *testing.T) {
	tr, _ := newTestTranslator(t)

	post := postView("ignored", nil)
	post.Record = nil

	status, err := tr.Status(context.Background(), post)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Content != "<p></p>" {
		t.Errorf("Content = %q, want empty paragraph", status.Content)
	}
	// Falls back to the index time.
	if status.CreatedAt.IsZero() {
		t.Error("CreatedAt should fall back to IndexedAt")
	}
}

func TestStatusFromFeedItem_Plain(t *testing.T) {
	tr, _ := newTestTranslator(t)

	status, err := tr.StatusFromFeedItem(context.Background(), &bsky.FeedDefs_FeedViewPost{
		Post: postView("just a post", nil),
	})
	if err != nil {
		t.Fatalf("StatusFromFeedItem failed: %v", err)
	}
	if status.Reblog != nil {
		t.Error("plain feed item must not be wrapped in a boost")
	}
}

func TestStatusFromFeedItem_Repost(t *testing.T) {
	tr, _ := newTestTranslator(t)
	ctx := context.Background()

	item := &bsky.FeedDefs_FeedViewPost{
		Post: postView("original", nil),
		Reason: &bsky.FeedDefs_FeedViewPost_Reason{
			FeedDefs_ReasonRepost: &bsky.FeedDefs_ReasonRepost{
				By:        basicAuthor("did:plc:dave", "dave.bsky.social"),
				IndexedAt: "2024-02-01T08:00:00Z",
			},
		},
	}

	boost, err := tr.StatusFromFeedItem(ctx, item)
	if err != nil {
		t.Fatalf("StatusFromFeedItem failed: %v", err)
	}
	if boost.Reblog == nil {
		t.Fatal("Reblog = nil, want inner status")
	}
	if boost.Account.Acct != "dave.bsky.social" {
		t.Errorf("boost account = %q, want reposter", boost.Account.Acct)
	}
	if boost.Reblog.Account.Acct != "alice.bsky.social" {
		t.Errorf("inner account = %q, want author", boost.Reblog.Account.Acct)
	}
	if boost.Content != "" {
		t.Errorf("boost Content = %q, want empty", boost.Content)
	}
	if boost.ID == boost.Reblog.ID {
		t.Error("boost must get its own ID")
	}
	if got := boost.CreatedAt.Format("2006-01-02"); got != "2024-02-01" {
		t.Errorf("boost CreatedAt = %s, want repost time", got)
	}

	// The boost ID stays stable for the same post and reposter.
	again, _ := tr.StatusFromFeedItem(ctx, item)
	if again.ID != boost.ID {
		t.Errorf("boost ID changed: %s vs %s", boost.ID, again.ID)
	}
}
