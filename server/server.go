// Package server 提供一个轻量预览服务：在调参时直接在浏览器里查看某个样本
// 序号的生成结果，无需整批落盘。
package server

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chesterccchen/synthetic-handwriting-data/generator"
)

// Server 包装一个已就绪的生成器。
type Server struct {
	gen *generator.Generator
}

func New(gen *generator.Generator) *Server {
	return &Server{gen: gen}
}

// Router 构建路由。
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/preview", s.preview)
		api.GET("/stats", s.stats)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// preview 生成 index 指定的样本并以 PNG 返回。同一 index 总是返回同一张图。
func (s *Server) preview(c *gin.Context) {
	index, err := strconv.Atoi(c.DefaultQuery("index", "0"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index 必须是非负整数"})
		return
	}
	sample, err := s.gen.GenerateSample(index)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sample.Image); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("X-Sample-Label", sample.Label)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) stats(c *gin.Context) {
	idx := s.gen.Index()
	c.JSON(http.StatusOK, gin.H{
		"chars":  idx.Chars(),
		"glyphs": idx.Total(),
	})
}
