// Package tools defines the Tool interface for LLM agents, including the
// parameter schema and error contracts shared by the travel tools. Tools
// enable agents to query external travel providers in a structured,
// extensible way.
package tools
