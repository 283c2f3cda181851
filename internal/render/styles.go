package render

// Styles：欢迎容器、加载动画与错误提示的样式，颜色取自页面主题变量
const Styles = `#welcome-info {
  user-select: none;
  display: flex;
  justify-content: center;
  align-items: center;
  height: 212px;
  padding: 10px;
  margin-top: 5px;
  border-radius: 12px;
  background-color: var(--anzhiyu-background);
  outline: 1px solid var(--anzhiyu-card-border);
  text-align: center;
}
.loading-spinner {
  width: 50px;
  height: 50px;
  border: 3px solid rgba(0, 0, 0, 0.1);
  border-radius: 50%;
  border-top: 3px solid var(--anzhiyu-main);
  animation: spin 1s linear infinite;
}
@keyframes spin {
  0% { transform: rotate(0deg); }
  100% { transform: rotate(360deg); }
}
.error-message {
  color: #ff6565;
  display: flex;
  flex-direction: column;
  justify-content: center;
  align-items: center;
}
.error-message p {
  margin: 5px 0;
  text-align: center;
}
.error-icon {
  font-size: 2rem;
  margin-bottom: 10px;
}
#retry-button {
  margin: 0 5px;
  color: var(--anzhiyu-main);
  transition: transform 0.3s ease;
  cursor: pointer;
}
#retry-button:hover {
  transform: rotate(180deg);
}
`
