package recordings

import "github.com/gin-gonic/gin"

func toUploadResponse(rec Recording) gin.H {
	return gin.H{
		"id":               rec.ID,
		"fileName":         rec.FileName,
		"originalFilename": rec.OriginalFilename,
		"status":           rec.Status,
		"uploadedAt":       rec.UploadedAt,
	}
}

func toStatusResponse(rec Recording) gin.H {
	resp := gin.H{
		"id":     rec.ID,
		"status": rec.Status,
	}
	if rec.ErrorMessage != nil {
		resp["errorMessage"] = *rec.ErrorMessage
	}
	if rec.AnalyzedAt != nil {
		resp["analyzedAt"] = rec.AnalyzedAt
	}
	return resp
}

func toResultsResponse(rec Recording) gin.H {
	return gin.H{
		"id":               rec.ID,
		"originalFilename": rec.OriginalFilename,
		"subject":          rec.Subject,
		"gradeLevel":       rec.GradeLevel,
		"lessonTopic":      rec.LessonTopic,
		"transcription":    rec.Transcription,
		"prosody":          rec.Prosody,
		"feedback":         rec.Feedback,
		"status":           rec.Status,
		"uploadedAt":       rec.UploadedAt,
		"analyzedAt":       rec.AnalyzedAt,
	}
}

func toListItem(rec Recording) gin.H {
	item := gin.H{
		"id":               rec.ID,
		"originalFilename": rec.OriginalFilename,
		"subject":          rec.Subject,
		"status":           rec.Status,
		"uploadedAt":       rec.UploadedAt,
	}
	if rec.AnalyzedAt != nil {
		item["analyzedAt"] = rec.AnalyzedAt
	}
	return item
}
