package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"lexiquest/internal/models"
)

// DigestService mails parents a weekly progress summary via Amazon SES.
type DigestService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewDigestService creates a new digest service. With no from-address
// configured it comes up disabled and every send is a logged no-op.
func NewDigestService(awsRegion, fromEmail, fromName string) (*DigestService, error) {
	if fromEmail == "" {
		zap.S().Info("Digest service disabled: DIGEST_FROM_EMAIL not configured")
		return &DigestService{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	zap.S().Infow("Digest service enabled", "from", fromEmail, "region", awsRegion)
	return &DigestService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the digest service is enabled
func (s *DigestService) IsEnabled() bool {
	return s.enabled
}

// SendWeeklyDigest mails one learner's summary for the week just played.
func (s *DigestService) SendWeeklyDigest(ctx context.Context, toEmail string, profile models.UserProfile, stats models.UserStats) error {
	if !s.enabled {
		zap.S().Infow("Skipping digest send (service disabled)", "to", toEmail)
		return nil
	}

	subject := fmt.Sprintf("%s's week in LexiQuest", profile.Username)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #7c5cff; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.stat { font-size: 24px; font-weight: bold; color: #7c5cff; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s's Week in Review</h1>
		</div>
		<div class="content">
			<p>Here is what %s got up to this week:</p>
			<ul>
				<li><span class="stat">%d</span> XP earned</li>
				<li><span class="stat">%d</span> word cards studied</li>
				<li><span class="stat">%d</span> quiz questions answered correctly</li>
				<li><span class="stat">%d</span> daily quests completed</li>
			</ul>
			<p>Current streak: <strong>%d days</strong> &middot; Level <strong>%d</strong> &middot; <strong>%d</strong> words memorized in total.</p>
			<p>Keep it up!</p>
		</div>
		<div class="footer">
			<p>This is an automated email from LexiQuest. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, profile.Username, profile.Username,
		stats.Weekly.XP, stats.Weekly.CardsViewed, stats.Weekly.QuizCorrect, stats.Weekly.QuestsCompleted,
		stats.Streak, stats.Level, stats.MemorizedCount)

	textBody := fmt.Sprintf(`%s's week in LexiQuest:

- %d XP earned
- %d word cards studied
- %d quiz questions answered correctly
- %d daily quests completed

Current streak: %d days. Level %d. %d words memorized in total.

Keep it up!

---
This is an automated email from LexiQuest. Please do not reply.
`, profile.Username,
		stats.Weekly.XP, stats.Weekly.CardsViewed, stats.Weekly.QuizCorrect, stats.Weekly.QuestsCompleted,
		stats.Streak, stats.Level, stats.MemorizedCount)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *DigestService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	zap.S().Infow("Digest sent", "to", toEmail, "subject", subject)
	return nil
}
