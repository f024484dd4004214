package service

import (
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// attachmentLimits caps one upload batch. maxImagesWithVideo applies
// only when the batch (or batch plus retained files) contains a video.
type attachmentLimits struct {
	maxTotal           int
	maxVideos          int
	maxImagesWithVideo int
}

var (
	createLimits = attachmentLimits{maxTotal: 3, maxVideos: 1, maxImagesWithVideo: 2}
	verifyLimits = attachmentLimits{maxTotal: 2, maxVideos: 1, maxImagesWithVideo: 1}
)

// checkAttachmentPolicy validates counts before any file is written.
// The whole batch is rejected on the first violation.
func checkAttachmentPolicy(limits attachmentLimits, videos, images int) error {
	details := map[string]any{"videos": videos, "images": images}
	if videos > limits.maxVideos {
		return apperrors.NewPolicyViolation("too many video attachments", details)
	}
	if videos+images > limits.maxTotal {
		return apperrors.NewPolicyViolation("too many attachments", details)
	}
	if videos > 0 && images > limits.maxImagesWithVideo {
		return apperrors.NewPolicyViolation("too many image attachments alongside video", details)
	}
	return nil
}
