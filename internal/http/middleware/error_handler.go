package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/soundvault/earnings-backend/internal/logger"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Хэндлеры кладут ошибку в c.Error и выходят; клиент получает код и сообщение
// AppError, а внутренние ошибки маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Ответ уже отправлен самим хэндлером
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		fields := logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}

		if appErr, ok := apperror.As(err); ok {
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logError(fields, "request failed")
			}
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}

		// Неуспешный ответ стороннего API из passthrough функций отдаётся как есть в details.
		if pErr, ok := providers.AsError(err); ok {
			fields["provider"] = pErr.Provider
			fields["status_code"] = pErr.StatusCode
			logError(fields, "provider request failed")

			details := pErr.Body
			if details == "" && pErr.Err != nil {
				details = pErr.Err.Error()
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   pErr.Provider + " request failed",
				"details": details,
			})
			return
		}

		logError(fields, "request error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
			"code":  apperror.ErrCodeInternal,
		})
	}
}

func logError(fields logrus.Fields, msg string) {
	if logger.Log != nil {
		logger.Log.WithFields(fields).Error(msg)
	}
}
