package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tubepulse/domain/apierror"
	"tubepulse/domain/model"
	"tubepulse/domain/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// shortMaxDuration is the upper bound for the shorts partition.
const shortMaxDuration = 60 * time.Second

// Client wraps the YouTube Data API behind the upstream operations
// consumed by the orchestrator.
type Client struct {
	service     *youtube.Service
	oauthConfig *oauth2.Config
	token       *oauth2.Token
	ctx         context.Context
}

// Config represents YouTube API configuration
type Config struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	APIKey       string `json:"api_key"`
}

// NewYouTubeClient creates a new YouTube API client. Without OAuth
// credentials it falls back to API key only mode (read-only).
func NewYouTubeClient(ctx context.Context, config *Config) (repository.IUpstream, error) {
	if (config.AccessToken == "" || config.RefreshToken == "") && config.APIKey != "" {
		service, err := youtube.NewService(ctx, option.WithAPIKey(config.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
		}
		return &Client{service: service, ctx: ctx}, nil
	}

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes: []string{
			youtube.YoutubeReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}

	token := &oauth2.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-1 * time.Minute), // Force refresh on first use
	}

	httpClient := oauth2Config.Client(ctx, token)
	service, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service:     service,
		oauthConfig: oauth2Config,
		token:       token,
		ctx:         ctx,
	}, nil
}

// ChannelInfo looks up a channel by its stable identifier.
func (c *Client) ChannelInfo(ctx context.Context, channelID string) (*model.ChannelRecord, error) {
	const op = "youtube.ChannelInfo"
	response, err := c.service.Channels.
		List([]string{"snippet", "statistics", "contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(op, err)
	}
	if len(response.Items) == 0 {
		return nil, apierror.New(apierror.KindUpstreamNotFound, op, "channel not found: "+channelID)
	}
	record := toChannelRecord(response.Items[0])
	return &record, nil
}

// ChannelByHandle resolves an @handle to a full channel record.
func (c *Client) ChannelByHandle(ctx context.Context, handle string) (*model.ChannelRecord, error) {
	const op = "youtube.ChannelByHandle"
	response, err := c.service.Channels.
		List([]string{"snippet", "statistics", "contentDetails"}).
		ForHandle(handle).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(op, err)
	}
	if len(response.Items) == 0 {
		return nil, apierror.New(apierror.KindUpstreamNotFound, op, "no channel for handle: "+handle)
	}
	record := toChannelRecord(response.Items[0])
	return &record, nil
}

// ChannelsByIDs fetches statistics for up to 50 channels in one call.
func (c *Client) ChannelsByIDs(ctx context.Context, channelIDs []string) ([]model.ChannelRecord, error) {
	const op = "youtube.ChannelsByIDs"
	if len(channelIDs) == 0 {
		return nil, nil
	}
	response, err := c.service.Channels.
		List([]string{"snippet", "statistics", "contentDetails"}).
		Id(strings.Join(channelIDs, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(op, err)
	}
	records := make([]model.ChannelRecord, 0, len(response.Items))
	for _, item := range response.Items {
		records = append(records, toChannelRecord(item))
	}
	return records, nil
}

// PlaylistPage fetches one page of video IDs from an uploads playlist.
func (c *Client) PlaylistPage(ctx context.Context, playlistID, pageToken string, maxResults int64) (*model.PlaylistPage, error) {
	const op = "youtube.PlaylistPage"
	call := c.service.PlaylistItems.
		List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	response, err := call.Do()
	if err != nil {
		return nil, mapError(op, err)
	}
	page := &model.PlaylistPage{
		VideoIDs:      make([]string, 0, len(response.Items)),
		NextPageToken: response.NextPageToken,
	}
	for _, item := range response.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			page.VideoIDs = append(page.VideoIDs, item.ContentDetails.VideoId)
		}
	}
	return page, nil
}

// VideoBatch fetches statistics for up to 50 videos in one call.
func (c *Client) VideoBatch(ctx context.Context, videoIDs []string) ([]model.VideoRecord, error) {
	const op = "youtube.VideoBatch"
	if len(videoIDs) == 0 {
		return nil, nil
	}
	response, err := c.service.Videos.
		List([]string{"snippet", "statistics", "contentDetails", "liveStreamingDetails"}).
		Id(strings.Join(videoIDs, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(op, err)
	}
	records := make([]model.VideoRecord, 0, len(response.Items))
	for _, item := range response.Items {
		records = append(records, toVideoRecord(item))
	}
	return records, nil
}

// SearchChannels runs a full-text channel search. Expensive; callers gate
// it behind the quota warning threshold.
func (c *Client) SearchChannels(ctx context.Context, query string, maxResults int64) ([]model.ChannelRecord, error) {
	const op = "youtube.SearchChannels"
	if maxResults <= 0 {
		maxResults = 5
	}
	response, err := c.service.Search.
		List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(op, err)
	}
	records := make([]model.ChannelRecord, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.ChannelId == "" {
			continue
		}
		record := model.ChannelRecord{
			ChannelID:   item.Id.ChannelId,
			DisplayName: item.Snippet.Title,
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
			record.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
		}
		records = append(records, record)
	}
	return records, nil
}

func toChannelRecord(channel *youtube.Channel) model.ChannelRecord {
	record := model.ChannelRecord{
		ChannelID:   channel.Id,
		DisplayName: channel.Snippet.Title,
	}
	record.ThumbnailURL = pickThumbnail(channel.Snippet.Thumbnails)
	if channel.Statistics != nil {
		record.SubscriberCount = int64(channel.Statistics.SubscriberCount)
		record.TotalViewCount = int64(channel.Statistics.ViewCount)
	}
	if channel.ContentDetails != nil && channel.ContentDetails.RelatedPlaylists != nil {
		record.UploadsListRef = channel.ContentDetails.RelatedPlaylists.Uploads
	}
	return record
}

func toVideoRecord(video *youtube.Video) model.VideoRecord {
	publishedAt, _ := time.Parse(time.RFC3339, video.Snippet.PublishedAt)
	record := model.VideoRecord{
		ID:          video.Id,
		ChannelID:   video.Snippet.ChannelId,
		Title:       video.Snippet.Title,
		PublishedAt: publishedAt,
		WatchURL:    "https://www.youtube.com/watch?v=" + video.Id,
		MediaClass:  model.MediaVideo,
		LiveState:   model.LiveNone,
	}
	record.ThumbnailURL = pickThumbnail(video.Snippet.Thumbnails)
	if video.Statistics != nil {
		record.ViewCount = int64(video.Statistics.ViewCount)
		record.LikeCount = int64(video.Statistics.LikeCount)
	}
	if video.ContentDetails != nil {
		if d, ok := parseISODuration(video.ContentDetails.Duration); ok && d > 0 && d <= shortMaxDuration {
			record.MediaClass = model.MediaShort
			record.WatchURL = "https://www.youtube.com/shorts/" + video.Id
		}
	}
	switch video.Snippet.LiveBroadcastContent {
	case "live":
		record.LiveState = model.LiveNow
		if video.LiveStreamingDetails != nil {
			record.LiveViewerCount = int64(video.LiveStreamingDetails.ConcurrentViewers)
		}
	case "none":
		if video.LiveStreamingDetails != nil && video.LiveStreamingDetails.ActualEndTime != "" {
			record.LiveState = model.LiveEnded
		}
	}
	return record
}

func pickThumbnail(thumbs *youtube.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	switch {
	case thumbs.High != nil:
		return thumbs.High.Url
	case thumbs.Medium != nil:
		return thumbs.Medium.Url
	case thumbs.Default != nil:
		return thumbs.Default.Url
	}
	return ""
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseISODuration handles the PT#H#M#S durations the API returns for
// video content details.
func parseISODuration(s string) (time.Duration, bool) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	days, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	hours, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[4]))
	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	return d, true
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// mapError translates transport failures into the error taxonomy.
func mapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 403:
			for _, item := range gerr.Errors {
				switch item.Reason {
				case "quotaExceeded", "dailyLimitExceeded":
					return apierror.Wrap(apierror.KindQuotaExceeded, op, err)
				case "rateLimitExceeded", "userRateLimitExceeded":
					return apierror.Wrap(apierror.KindRateLimited, op, err)
				}
			}
			return apierror.Wrap(apierror.KindUpstreamPermission, op, err)
		case 401:
			return apierror.Wrap(apierror.KindUpstreamPermission, op, err)
		case 404:
			return apierror.Wrap(apierror.KindUpstreamNotFound, op, err)
		case 429:
			return apierror.Wrap(apierror.KindRateLimited, op, err)
		}
		// 5xx and anything else unexpected stays retryable.
		return apierror.Wrap(apierror.KindTransientNetwork, op, err)
	}
	// Timeouts and raw network failures land here.
	return apierror.Wrap(apierror.KindTransientNetwork, op, err)
}
