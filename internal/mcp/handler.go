package mcp

import (
	"encoding/json"
	"fmt"
)

// handleMessage processes one incoming message. Notifications return
// no response.
func (s *Server) handleMessage(msg *Message) *Message {
	if msg.IsRequest() {
		return s.handleRequest(msg)
	}
	if msg.IsNotification() {
		s.logger.Debug("Notification", map[string]interface{}{
			"method": msg.Method,
		})
		return nil
	}
	return NewErrorMessage(msg.Id, InvalidRequest, "Invalid message: not a request or notification", nil)
}

func (s *Server) handleRequest(msg *Message) *Message {
	s.logger.Debug("Handling request", map[string]interface{}{
		"method": msg.Method, "id": msg.Id,
	})

	switch msg.Method {
	case "initialize":
		return NewResultMessage(msg.Id, s.initializeResult())
	case "tools/list":
		return NewResultMessage(msg.Id, map[string]interface{}{
			"tools": s.ToolDefinitions(),
		})
	case "tools/call":
		return s.handleCallTool(msg)
	default:
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method), nil)
	}
}

func (s *Server) initializeResult() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "tia",
			"version": s.version,
		},
	}
}

func (s *Server) handleCallTool(msg *Message) *Message {
	params, ok := msg.Params.(map[string]interface{})
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "Invalid params: expected object", nil)
	}

	toolName, ok := params["name"].(string)
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "Missing tool name", nil)
	}
	toolParams, ok := params["arguments"].(map[string]interface{})
	if !ok {
		toolParams = make(map[string]interface{})
	}

	handler, exists := s.tools[toolName]
	if !exists {
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("Unknown tool: %s", toolName), nil)
	}

	s.logger.Info("Calling tool", map[string]interface{}{
		"tool": toolName,
	})

	result, err := handler(toolParams)
	if err != nil {
		// Tool failures travel as content so the client can show them.
		return NewResultMessage(msg.Id, toolContent(map[string]interface{}{
			"error": err.Error(),
		}))
	}
	return NewResultMessage(msg.Id, toolContent(result))
}

// toolContent wraps a tool result in the MCP content envelope.
func toolContent(result interface{}) map[string]interface{} {
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		jsonBytes = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": string(jsonBytes),
			},
		},
	}
}
